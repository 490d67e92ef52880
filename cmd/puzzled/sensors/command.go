package sensors

import (
	"fmt"

	"github.com/mdouchement/puzzled"
	"github.com/mdouchement/puzzled/wt61p803"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var cpath string
	var dummy bool

	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Show a one-shot reading of every MCU channel",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := puzzled.Load(cpath)
			if err != nil {
				return err
			}

			var bus wt61p803.Bus = wt61p803.NewDummyBus()
			if !dummy {
				sbus, err := wt61p803.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
				if err != nil {
					return fmt.Errorf("serial: %w", err)
				}
				defer sbus.Close()

				bus = sbus
			}

			dev := wt61p803.NewDevice(bus)

			for ch := range wt61p803.NumTemp {
				v, err := dev.Temperature(ch)
				if err != nil {
					return err
				}
				fmt.Printf("temp%d: %6.1f°C\n", ch+1, float64(v)/1000)
			}

			for ch := range wt61p803.NumFan {
				v, err := dev.FanSpeed(ch)
				if err != nil {
					return err
				}
				fmt.Printf("fan%d:  %6d RPM\n", ch+1, v)
			}

			for ch := range wt61p803.NumPWM {
				v, err := dev.PWM(ch)
				if err != nil {
					return err
				}
				fmt.Printf("pwm%d:  %6d\n", ch+1, v)
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/puzzled/puzzled.yml", "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Use a dummy MCU bus")

	return cmd
}
