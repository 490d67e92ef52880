package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/puzzled"
	"github.com/mdouchement/puzzled/cmd/puzzled/sensors"
	"github.com/mdouchement/puzzled/thermal"
	"github.com/mdouchement/puzzled/wt61p803"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cpath string
	dummy bool
)

func main() {
	cmd := &cobra.Command{
		Use:     "puzzled",
		Short:   "A hwmon/thermal daemon for the IEI WT61P803 PUZZLE board MCU",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		RunE:    daemon,
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/puzzled/puzzled.yml", "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Start puzzled with a dummy MCU bus")
	cmd.AddCommand(sensors.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for puzzled",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func daemon(_ *cobra.Command, _ []string) error {
	cfg, err := puzzled.Load(cpath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := logger.NewSlogTextHandler(os.Stdout, &logger.SlogTextOption{
		Level:            level,
		ForceColors:      true,
		ForceFormatting:  true,
		PrefixRE:         regexp.MustCompile(`^(\[.*?\])\s`),
		DisableTimestamp: true, // Provided by journalctl
	})
	log := logger.WrapSlogHandler(h)
	ctx := logger.WithLogger(context.Background(), log)

	log.Infof("puzzled version %s", version)

	var bus wt61p803.Bus = wt61p803.NewDummyBus()
	if !dummy {
		if cfg.Serial.Port == "" {
			return errors.New("serial.port is required")
		}

		sbus, err := wt61p803.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		defer sbus.Close()

		log.Infof("MCU serial port `%s`", sbus.Port())
		bus = sbus
	}

	puzzle, err := puzzled.Probe(cfg, bus, thermal.NewRegistry(), log)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer puzzle.Close()

	ctx, cancel := context.WithCancel(ctx)

	server, err := puzzled.NewServer(cfg, puzzle)
	if err != nil {
		cancel()
		return err
	}
	server.Launch(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	<-ctx.Done()
	cancel()

	log.Info("Gracefully shutdown")
	return nil
}
