// Package thermal is a small cooling-device registry: a thermal governor
// picks a cooling device by name and drives its state, whatever actuator
// sits behind it.
package thermal

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrDuplicateDevice = errors.New("cooling device already registered")
	ErrUnknownDevice   = errors.New("unknown cooling device")
)

// A CoolingDevice is an actuator with discrete cooling states in
// [0, MaxState]. Higher states cool harder.
type CoolingDevice interface {
	Name() string
	MaxState() (int, error)
	CurState() (int, error)
	SetCurState(state int) error
}

// A Registry holds the cooling devices of one host.
type Registry struct {
	sync    sync.Mutex
	devices map[string]CoolingDevice
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]CoolingDevice)}
}

func (r *Registry) Register(cdev CoolingDevice) error {
	r.sync.Lock()
	defer r.sync.Unlock()

	name := cdev.Name()
	if _, ok := r.devices[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateDevice)
	}

	r.devices[name] = cdev
	return nil
}

func (r *Registry) Unregister(name string) {
	r.sync.Lock()
	defer r.sync.Unlock()

	delete(r.devices, name)
}

func (r *Registry) Get(name string) (CoolingDevice, error) {
	r.sync.Lock()
	defer r.sync.Unlock()

	cdev, ok := r.devices[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownDevice)
	}

	return cdev, nil
}

func (r *Registry) Names() []string {
	r.sync.Lock()
	defer r.sync.Unlock()

	names := make([]string, 0, len(r.devices))
	for name := range r.devices {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}
