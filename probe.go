package puzzled

import (
	"errors"
	"fmt"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/puzzled/hwmon"
	"github.com/mdouchement/puzzled/thermal"
	"github.com/mdouchement/puzzled/wt61p803"
)

// A Puzzle is one probed MCU instance: the protocol facade, its hwmon chip
// and the cooling devices bound to the thermal registry.
type Puzzle struct {
	dev     *wt61p803.Device
	chip    *hwmon.Chip
	thermal *thermal.Registry
	cdevs   []*FanCoolingDevice
	log     logger.Logger
}

// Probe wires a bus into a ready Puzzle: governor ownership is settled
// first so attribute visibility sees it, then the hwmon chip is registered,
// then each thermal child is bound as a cooling device. Any failure unwinds
// every registration already made.
func Probe(cfg Config, bus wt61p803.Bus, registry *thermal.Registry, log logger.Logger) (*Puzzle, error) {
	if registry == nil {
		registry = thermal.NewRegistry()
	}

	dev := wt61p803.NewDevice(bus)
	if cfg.Debug {
		dev.SetLogger(log)
	}

	ops := &mcuOps{dev: dev}
	for _, child := range cfg.Thermal {
		if child.Reg == nil || *child.Reg < 0 || *child.Reg >= wt61p803.NumPWM {
			return nil, errors.New("thermal: invalid reg property")
		}

		ops.governed[*child.Reg] = true
	}

	chip, err := hwmon.Register(ChipName, ops, chipInfo)
	if err != nil {
		return nil, fmt.Errorf("hwmon: %w", err)
	}

	p := &Puzzle{
		dev:     dev,
		chip:    chip,
		thermal: registry,
		log:     log,
	}

	for _, child := range cfg.Thermal {
		if len(child.CoolingLevels) == 0 {
			p.unwind()
			return nil, fmt.Errorf("thermal: pwm %d: cooling-levels is required", *child.Reg)
		}

		cdev := newFanCoolingDevice(dev, child)
		if err = registry.Register(cdev); err != nil {
			p.unwind()
			return nil, fmt.Errorf("thermal: %w", err)
		}

		p.cdevs = append(p.cdevs, cdev)
		log.Infof("Bound cooling device %s (levels %v)", cdev.Name(), cdev.Levels())
	}

	return p, nil
}

// Chip returns the registered hwmon chip.
func (p *Puzzle) Chip() *hwmon.Chip {
	return p.chip
}

// Thermal returns the cooling-device registry this instance registered into.
func (p *Puzzle) Thermal() *thermal.Registry {
	return p.thermal
}

// CoolingDevices returns the bound cooling devices, in binding order.
func (p *Puzzle) CoolingDevices() []*FanCoolingDevice {
	return p.cdevs
}

// Close unregisters everything in reverse order of acquisition. The bus is
// borrowed and stays open.
func (p *Puzzle) Close() error {
	p.unwind()
	return nil
}

func (p *Puzzle) unwind() {
	for i := len(p.cdevs) - 1; i >= 0; i-- {
		p.thermal.Unregister(p.cdevs[i].Name())
	}
	p.cdevs = nil
}
