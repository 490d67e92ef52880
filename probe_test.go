package puzzled

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/puzzled/hwmon"
	"github.com/mdouchement/puzzled/thermal"
	"github.com/mdouchement/puzzled/wt61p803"
)

func testLogger() logger.Logger {
	h := logger.NewSlogTextHandler(io.Discard, &logger.SlogTextOption{Level: slog.LevelError})
	return logger.WrapSlogHandler(h)
}

func testConfig(children ...ThermalChild) Config {
	return Config{
		Socket:          "unused",
		MonitorInterval: Duration{Duration: time.Second},
		Thermal:         children,
	}
}

func TestProbeBare(t *testing.T) {
	p, err := Probe(testConfig(), wt61p803.NewDummyBus(), thermal.NewRegistry(), testLogger())
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	defer p.Close()

	// 2 temp + 5 fan + 2 pwm inputs, all visible, pwm writable.
	if got := len(p.Chip().Attributes()); got != 9 {
		t.Fatalf("attributes=%d want 9", got)
	}
	for _, name := range []string{"pwm1_input", "pwm2_input"} {
		ai, ok := p.Chip().Lookup(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if ai.Mode != 0o644 {
			t.Fatalf("%s: mode=%#o want 0644", name, ai.Mode)
		}
	}

	if names := p.Thermal().Names(); len(names) != 0 {
		t.Fatalf("cooling devices=%v want none", names)
	}
}

func TestProbeGovernorOwnership(t *testing.T) {
	cfg := testConfig(ThermalChild{Reg: ToPtr(0), CoolingLevels: []int{0, 64, 128, 255}})
	registry := thermal.NewRegistry()

	p, err := Probe(cfg, wt61p803.NewDummyBus(), registry, testLogger())
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	defer p.Close()

	// The governed channel is read-only from hwmon, the other stays writable.
	ai, _ := p.Chip().Lookup("pwm1_input")
	if ai.Mode != 0o444 {
		t.Fatalf("pwm1_input: mode=%#o want 0444", ai.Mode)
	}
	ai, _ = p.Chip().Lookup("pwm2_input")
	if ai.Mode != 0o644 {
		t.Fatalf("pwm2_input: mode=%#o want 0644", ai.Mode)
	}

	if err = p.Chip().WriteAttr("pwm1_input", 10); !errors.Is(err, hwmon.ErrReadOnly) {
		t.Fatalf("error=%v want ErrReadOnly", err)
	}

	// The governor path still drives the channel, and hwmon observes it.
	cdev, err := registry.Get("wt61p803_puzzle_0")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if max, _ := cdev.MaxState(); max != 255 {
		t.Fatalf("max_state=%d want 255", max)
	}
	if err = cdev.SetCurState(128); err != nil {
		t.Fatalf("SetCurState() error: %v", err)
	}
	if state, _ := cdev.CurState(); state != 128 {
		t.Fatalf("cur_state=%d want 128", state)
	}
	if v, _ := p.Chip().ReadAttr("pwm1_input"); v != 128 {
		t.Fatalf("pwm1_input=%d want 128", v)
	}

	fcd := p.CoolingDevices()[0]
	if fcd.Channel() != 0 {
		t.Fatalf("channel=%d want 0", fcd.Channel())
	}
	levels := fcd.Levels()
	levels[0] = 99 // the record's own copy must not move
	if fcd.Levels()[0] != 0 {
		t.Fatal("cooling levels must be copied out")
	}
}

func TestProbeFailureUnwinds(t *testing.T) {
	registry := thermal.NewRegistry()
	cfg := testConfig(
		ThermalChild{Reg: ToPtr(0), CoolingLevels: []int{0, 255}},
		ThermalChild{Reg: ToPtr(1)}, // no cooling-levels
	)

	_, err := Probe(cfg, wt61p803.NewDummyBus(), registry, testLogger())
	if err == nil {
		t.Fatal("expected probe failure")
	}

	if names := registry.Names(); len(names) != 0 {
		t.Fatalf("registrations left after failed probe: %v", names)
	}
}

func TestProbeCloseUnregisters(t *testing.T) {
	registry := thermal.NewRegistry()
	cfg := testConfig(ThermalChild{Reg: ToPtr(1), CoolingLevels: []int{0, 255}})

	p, err := Probe(cfg, wt61p803.NewDummyBus(), registry, testLogger())
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if names := registry.Names(); len(names) != 1 || names[0] != "wt61p803_puzzle_1" {
		t.Fatalf("names=%v want [wt61p803_puzzle_1]", names)
	}

	if err = p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if names := registry.Names(); len(names) != 0 {
		t.Fatalf("names=%v want none after close", names)
	}
}

func TestAttributeEngineDispatch(t *testing.T) {
	p, err := Probe(testConfig(), wt61p803.NewDummyBus(), thermal.NewRegistry(), testLogger())
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	defer p.Close()

	chip := p.Chip()

	if v, err := chip.ReadAttr("temp1_input"); err != nil || v != 32000 {
		t.Fatalf("temp1_input=%d err=%v want 32000", v, err)
	}
	if v, err := chip.ReadAttr("temp2_input"); err != nil || v != 28000 {
		t.Fatalf("temp2_input=%d err=%v want 28000", v, err)
	}

	if err := chip.WriteAttr("pwm1_input", 255); err != nil {
		t.Fatalf("WriteAttr() error: %v", err)
	}
	if v, err := chip.ReadAttr("pwm1_input"); err != nil || v != 255 {
		t.Fatalf("pwm1_input=%d err=%v want 255", v, err)
	}

	// Full duty spins the dummy fan at its top speed.
	if v, err := chip.ReadAttr("fan1_input"); err != nil || v != 3000 {
		t.Fatalf("fan1_input=%d err=%v want 3000", v, err)
	}
	// Extra tach channels read zero on the dummy but stay readable.
	if v, err := chip.ReadAttr("fan5_input"); err != nil || v != 0 {
		t.Fatalf("fan5_input=%d err=%v want 0", v, err)
	}

	if err := chip.WriteAttr("pwm1_input", 256); !errors.Is(err, wt61p803.ErrInvalidPWM) {
		t.Fatalf("error=%v want ErrInvalidPWM", err)
	}
}
