package puzzled

import (
	"fmt"

	"github.com/mdouchement/puzzled/wt61p803"
)

// A FanCoolingDevice lets the thermal governor drive one PWM channel as a
// cooling actuator. The state is the PWM duty byte. The cooling-levels
// vector from the firmware binding is kept for governor policy but states
// are written verbatim.
type FanCoolingDevice struct {
	dev     *wt61p803.Device
	channel int
	levels  []byte
	name    string
}

func newFanCoolingDevice(dev *wt61p803.Device, child ThermalChild) *FanCoolingDevice {
	levels := make([]byte, len(child.CoolingLevels))
	for i, level := range child.CoolingLevels {
		levels[i] = byte(level)
	}

	return &FanCoolingDevice{
		dev:     dev,
		channel: *child.Reg,
		levels:  levels,
		name:    fmt.Sprintf("wt61p803_puzzle_%d", *child.Reg),
	}
}

func (c *FanCoolingDevice) Name() string {
	return c.name
}

// Channel returns the PWM index this cooling device owns.
func (c *FanCoolingDevice) Channel() int {
	return c.channel
}

// Levels returns the permitted duty values declared by the firmware, in
// ascending order.
func (c *FanCoolingDevice) Levels() []byte {
	levels := make([]byte, len(c.levels))
	copy(levels, c.levels)
	return levels
}

func (c *FanCoolingDevice) MaxState() (int, error) {
	return wt61p803.MaxPWM, nil
}

func (c *FanCoolingDevice) CurState() (int, error) {
	duty, err := c.dev.PWM(c.channel)
	return int(duty), err
}

func (c *FanCoolingDevice) SetCurState(state int) error {
	return c.dev.SetPWM(c.channel, state)
}
