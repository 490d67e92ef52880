package puzzled

import (
	"fmt"
	"os"
	"time"

	"github.com/mdouchement/puzzled/wt61p803"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Debug           bool           `yaml:"debug"`
	Socket          string         `yaml:"socket"`
	MonitorInterval Duration       `yaml:"monitor_interval"`
	Serial          SerialConfig   `yaml:"serial"`
	Thermal         []ThermalChild `yaml:"thermal"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// A ThermalChild surrenders one PWM channel to the thermal governor. It
// keeps the firmware binding's property names: reg is the PWM index,
// cooling-levels the permitted duty values in ascending order.
type ThermalChild struct {
	Reg           *int  `yaml:"reg"`
	CoolingLevels []int `yaml:"cooling-levels"`
}

func Load(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil {
		return c, err
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	if c.Socket == "" {
		c.Socket = "/run/puzzled/puzzled.sock"
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 115200
	}
	if c.MonitorInterval.Duration <= 0 {
		c.MonitorInterval.Duration = 2 * time.Second
	}

	seen := make(map[int]bool, wt61p803.NumPWM)
	for i, child := range c.Thermal {
		if child.Reg == nil {
			return fmt.Errorf("thermal[%d]: reg is required", i)
		}

		reg := *child.Reg
		if reg < 0 || reg >= wt61p803.NumPWM {
			return fmt.Errorf("thermal[%d]: reg %d out of range [0,%d]", i, reg, wt61p803.NumPWM-1)
		}
		if seen[reg] {
			return fmt.Errorf("thermal[%d]: reg %d already claimed", i, reg)
		}
		seen[reg] = true

		if len(child.CoolingLevels) == 0 {
			return fmt.Errorf("thermal[%d]: cooling-levels is required", i)
		}

		prev := -1
		for _, level := range child.CoolingLevels {
			if level < 0 || level > wt61p803.MaxPWM {
				return fmt.Errorf("thermal[%d]: cooling level %d out of range [0,%d]", i, level, wt61p803.MaxPWM)
			}
			if level <= prev {
				return fmt.Errorf("thermal[%d]: cooling levels must be ascending", i)
			}
			prev = level
		}
	}

	return nil
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	err := value.Decode(&str)
	if err != nil {
		return err
	}

	if str == "" {
		return nil
	}

	d.Duration, err = time.ParseDuration(str)
	return err
}
