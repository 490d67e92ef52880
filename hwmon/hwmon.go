// Package hwmon exposes a hardware-monitoring chip as a flat table of named
// attribute files, the way the Linux hwmon class does. A chip declares its
// static channel layout once; per-attribute visibility, reads and writes are
// delegated to the chip's Ops.
package hwmon

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrInvalidSensor    = errors.New("invalid sensor type")
	ErrReadOnly         = errors.New("attribute is read-only")
)

type SensorType int

const (
	SensorTemp SensorType = iota
	SensorFan
	SensorPWM
)

func (t SensorType) String() string {
	switch t {
	case SensorTemp:
		return "temp"
	case SensorFan:
		return "fan"
	case SensorPWM:
		return "pwm"
	}

	return fmt.Sprintf("sensor(%d)", int(t))
}

type Attribute int

const (
	// AttrInput is the current value of a channel.
	AttrInput Attribute = iota
)

func (a Attribute) String() string {
	if a == AttrInput {
		return "input"
	}

	return fmt.Sprintf("attr(%d)", int(a))
}

// Ops is implemented by a chip driver. Visible is evaluated once per
// attribute at registration time; a zero mode hides the attribute.
type Ops interface {
	Visible(t SensorType, attr Attribute, channel int) fs.FileMode
	Read(t SensorType, attr Attribute, channel int) (int64, error)
	Write(t SensorType, attr Attribute, channel int, value int64) error
}

// ChannelInfo declares the candidate attributes of every channel of one
// sensor type.
type ChannelInfo struct {
	Type       SensorType
	Count      int
	Attributes []Attribute
}

// AttrInfo describes one materialized attribute file.
type AttrInfo struct {
	Name    string
	Mode    fs.FileMode
	Type    SensorType
	Attr    Attribute
	Channel int
}

// A Chip is a registered hwmon device with its materialized attribute table.
type Chip struct {
	name  string
	ops   Ops
	attrs map[string]AttrInfo
}

// Register materializes the attribute table by evaluating the ops'
// visibility for every declared (type, attribute, channel) triple.
// Channels are 1-based in attribute names, temp1_input is channel 0.
func Register(name string, ops Ops, info []ChannelInfo) (*Chip, error) {
	if name == "" || strings.ContainsAny(name, " \t\n/") {
		return nil, fmt.Errorf("hwmon: invalid chip name %q", name)
	}

	c := &Chip{
		name:  name,
		ops:   ops,
		attrs: make(map[string]AttrInfo),
	}

	for _, ci := range info {
		for channel := range ci.Count {
			for _, attr := range ci.Attributes {
				mode := ops.Visible(ci.Type, attr, channel)
				if mode == 0 {
					continue
				}

				ai := AttrInfo{
					Name:    fmt.Sprintf("%s%d_%s", ci.Type, channel+1, attr),
					Mode:    mode,
					Type:    ci.Type,
					Attr:    attr,
					Channel: channel,
				}
				if _, ok := c.attrs[ai.Name]; ok {
					return nil, fmt.Errorf("hwmon: duplicate attribute %s", ai.Name)
				}

				c.attrs[ai.Name] = ai
			}
		}
	}

	return c, nil
}

func (c *Chip) Name() string {
	return c.name
}

// Attributes lists the visible attribute files, sorted by name.
func (c *Chip) Attributes() []AttrInfo {
	attrs := make([]AttrInfo, 0, len(c.attrs))
	for _, ai := range c.attrs {
		attrs = append(attrs, ai)
	}

	slices.SortFunc(attrs, func(a, b AttrInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return attrs
}

// Lookup returns the attribute file metadata by name.
func (c *Chip) Lookup(name string) (AttrInfo, bool) {
	ai, ok := c.attrs[name]
	return ai, ok
}

func (c *Chip) ReadAttr(name string) (int64, error) {
	ai, ok := c.attrs[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}

	return c.ops.Read(ai.Type, ai.Attr, ai.Channel)
}

func (c *Chip) WriteAttr(name string, value int64) error {
	ai, ok := c.attrs[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}
	if ai.Mode&0o200 == 0 {
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	}

	return c.ops.Write(ai.Type, ai.Attr, ai.Channel, value)
}
