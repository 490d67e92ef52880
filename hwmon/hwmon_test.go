package hwmon

import (
	"errors"
	"io/fs"
	"testing"
)

// tableOps exposes two temp channels read-only and one pwm channel
// read-write, with canned values.
type tableOps struct {
	values map[string]int64
	writes map[string]int64
}

func newTableOps() *tableOps {
	return &tableOps{
		values: map[string]int64{"temp0": 32000, "temp1": -16000, "pwm0": 128},
		writes: map[string]int64{},
	}
}

func (o *tableOps) key(t SensorType, channel int) string {
	switch t {
	case SensorTemp:
		return "temp" + string(rune('0'+channel))
	case SensorPWM:
		return "pwm" + string(rune('0'+channel))
	}

	return "fan" + string(rune('0'+channel))
}

func (o *tableOps) Visible(t SensorType, attr Attribute, channel int) fs.FileMode {
	switch t {
	case SensorTemp:
		return 0o444
	case SensorPWM:
		if channel == 1 {
			return 0o444 // governed
		}
		return 0o644
	}

	return 0
}

func (o *tableOps) Read(t SensorType, _ Attribute, channel int) (int64, error) {
	return o.values[o.key(t, channel)], nil
}

func (o *tableOps) Write(t SensorType, _ Attribute, channel int, value int64) error {
	o.writes[o.key(t, channel)] = value
	return nil
}

var testInfo = []ChannelInfo{
	{Type: SensorTemp, Count: 2, Attributes: []Attribute{AttrInput}},
	{Type: SensorFan, Count: 3, Attributes: []Attribute{AttrInput}},
	{Type: SensorPWM, Count: 2, Attributes: []Attribute{AttrInput}},
}

func TestRegisterMaterializesAttributes(t *testing.T) {
	chip, err := Register("chip", newTableOps(), testInfo)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if chip.Name() != "chip" {
		t.Fatalf("name=%s want chip", chip.Name())
	}

	want := map[string]fs.FileMode{
		"temp1_input": 0o444,
		"temp2_input": 0o444,
		"pwm1_input":  0o644,
		"pwm2_input":  0o444,
	}
	attrs := chip.Attributes()
	if len(attrs) != len(want) {
		t.Fatalf("attributes=%d want %d (%v)", len(attrs), len(want), attrs)
	}
	for name, mode := range want {
		ai, ok := chip.Lookup(name)
		if !ok {
			t.Fatalf("missing attribute %s", name)
		}
		if ai.Mode != mode {
			t.Fatalf("%s: mode=%#o want %#o", name, ai.Mode, mode)
		}
	}

	// Invisible fan channels must not surface.
	if _, ok := chip.Lookup("fan1_input"); ok {
		t.Fatal("fan1_input should be invisible")
	}
}

func TestRegisterRejectsBadName(t *testing.T) {
	for _, name := range []string{"", "with space", "a/b"} {
		if _, err := Register(name, newTableOps(), testInfo); err == nil {
			t.Fatalf("Register(%q) expected error", name)
		}
	}
}

func TestChipReadWrite(t *testing.T) {
	ops := newTableOps()
	chip, err := Register("chip", ops, testInfo)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	v, err := chip.ReadAttr("temp2_input")
	if err != nil {
		t.Fatalf("ReadAttr() error: %v", err)
	}
	if v != -16000 {
		t.Fatalf("temp2_input=%d want -16000", v)
	}

	if err = chip.WriteAttr("pwm1_input", 200); err != nil {
		t.Fatalf("WriteAttr() error: %v", err)
	}
	if ops.writes["pwm0"] != 200 {
		t.Fatalf("write did not reach ops: %v", ops.writes)
	}
}

func TestChipErrors(t *testing.T) {
	chip, err := Register("chip", newTableOps(), testInfo)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if _, err = chip.ReadAttr("temp9_input"); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("error=%v want ErrUnknownAttribute", err)
	}
	if err = chip.WriteAttr("nope", 1); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("error=%v want ErrUnknownAttribute", err)
	}
	if err = chip.WriteAttr("temp1_input", 1); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("error=%v want ErrReadOnly", err)
	}
	if err = chip.WriteAttr("pwm2_input", 1); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("governed pwm: error=%v want ErrReadOnly", err)
	}
}
