package puzzled

import (
	"fmt"
	"io/fs"

	"github.com/mdouchement/puzzled/hwmon"
	"github.com/mdouchement/puzzled/wt61p803"
)

// ChipName is the hwmon name of the MCU facade.
const ChipName = "wt61p803_puzzle"

// chipInfo is the static channel layout of the MCU: 2 PWM outputs, 5 fan
// tachometers, 2 NTC sensors.
var chipInfo = []hwmon.ChannelInfo{
	{Type: hwmon.SensorPWM, Count: wt61p803.NumPWM, Attributes: []hwmon.Attribute{hwmon.AttrInput}},
	{Type: hwmon.SensorFan, Count: wt61p803.NumFan, Attributes: []hwmon.Attribute{hwmon.AttrInput}},
	{Type: hwmon.SensorTemp, Count: wt61p803.NumTemp, Attributes: []hwmon.Attribute{hwmon.AttrInput}},
}

// mcuOps dispatches hwmon attribute traffic to the MCU facade. governed is
// filled during probe before the chip is registered and never written
// afterwards: a governed PWM channel belongs to the thermal governor and is
// read-only from hwmon.
type mcuOps struct {
	dev      *wt61p803.Device
	governed [wt61p803.NumPWM]bool
}

func (o *mcuOps) Visible(t hwmon.SensorType, attr hwmon.Attribute, channel int) fs.FileMode {
	switch t {
	case hwmon.SensorPWM:
		if o.governed[channel] {
			return 0o444
		}
		if attr == hwmon.AttrInput {
			return 0o644
		}
	case hwmon.SensorFan:
		if attr == hwmon.AttrInput {
			return 0o444
		}
	case hwmon.SensorTemp:
		if attr == hwmon.AttrInput {
			return 0o444
		}
	}

	return 0
}

func (o *mcuOps) Read(t hwmon.SensorType, _ hwmon.Attribute, channel int) (int64, error) {
	switch t {
	case hwmon.SensorPWM:
		v, err := o.dev.PWM(channel)
		return int64(v), err
	case hwmon.SensorFan:
		v, err := o.dev.FanSpeed(channel)
		return int64(v), err
	case hwmon.SensorTemp:
		v, err := o.dev.Temperature(channel)
		return int64(v), err
	}

	return 0, fmt.Errorf("%s: %w", t, hwmon.ErrInvalidSensor)
}

func (o *mcuOps) Write(t hwmon.SensorType, _ hwmon.Attribute, channel int, value int64) error {
	if t != hwmon.SensorPWM {
		return fmt.Errorf("%s: %w", t, hwmon.ErrInvalidSensor)
	}
	if value < 0 || value > wt61p803.MaxPWM {
		return fmt.Errorf("pwm%d: value %d: %w", channel+1, value, wt61p803.ErrInvalidPWM)
	}

	return o.dev.SetPWM(channel, int(value))
}
