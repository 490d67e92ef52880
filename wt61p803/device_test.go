package wt61p803

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedBus replays canned replies and records every request it sees.
type scriptedBus struct {
	t        *testing.T
	replies  [][]byte
	err      error
	requests [][]byte
}

func (b *scriptedBus) SendCommand(req, resp []byte) (int, error) {
	b.requests = append(b.requests, append([]byte{}, req...))

	if b.err != nil {
		return 0, b.err
	}
	if len(b.replies) == 0 {
		b.t.Fatal("scriptedBus: no reply left")
	}

	reply := b.replies[0]
	b.replies = b.replies[1:]
	return copy(resp, reply), nil
}

func TestDeviceTemperature(t *testing.T) {
	bus := &scriptedBus{t: t, replies: [][]byte{
		{0x40, 0x54, 0x40, '2', 0xA0, 0x70, 0x16},
		{0x40, 0x54, 0x40, '2', 0xA0, 0x70, 0x16},
	}}
	dev := NewDevice(bus)

	v, err := dev.Temperature(0)
	if err != nil {
		t.Fatalf("Temperature(0) error: %v", err)
	}
	if v != 32000 {
		t.Fatalf("temp1=%d want 32000", v)
	}

	v, err = dev.Temperature(1)
	if err != nil {
		t.Fatalf("Temperature(1) error: %v", err)
	}
	if v != -16000 {
		t.Fatalf("temp2=%d want -16000", v)
	}

	want := []byte{0x40, 0x54, 0x41, 0}
	if !bytes.Equal(bus.requests[0], want) {
		t.Fatalf("request=%#v want %#v", bus.requests[0], want)
	}

	if _, err = dev.Temperature(2); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("error=%v want ErrInvalidChannel", err)
	}
}

func TestDeviceFanSpeed(t *testing.T) {
	bus := &scriptedBus{t: t, replies: [][]byte{
		{0x40, 0x46, 0x44, 0x01, 0x90, 0x00, 0x5B},
	}}
	dev := NewDevice(bus)

	v, err := dev.FanSpeed(3)
	if err != nil {
		t.Fatalf("FanSpeed(3) error: %v", err)
	}
	if v != 12000 {
		t.Fatalf("fan4=%d want 12000", v)
	}

	want := []byte{0x40, 0x46, 0x44, 0}
	if !bytes.Equal(bus.requests[0], want) {
		t.Fatalf("request=%#v want %#v", bus.requests[0], want)
	}
}

func TestDeviceSetPWM(t *testing.T) {
	bus := &scriptedBus{t: t, replies: [][]byte{
		{0x40, 0x30, 0x70},
	}}
	dev := NewDevice(bus)

	if err := dev.SetPWM(0, 128); err != nil {
		t.Fatalf("SetPWM() error: %v", err)
	}

	want := []byte{0x40, 0x46, 0x57, 0x30, 128, 0}
	if !bytes.Equal(bus.requests[0], want) {
		t.Fatalf("request=%#v want %#v", bus.requests[0], want)
	}

	if err := dev.SetPWM(0, 300); !errors.Is(err, ErrInvalidPWM) {
		t.Fatalf("error=%v want ErrInvalidPWM", err)
	}
	if len(bus.requests) != 1 {
		t.Fatal("rejected duty must not reach the bus")
	}
}

func TestDeviceFramingErrorDoesNotPoisonBuffer(t *testing.T) {
	bus := &scriptedBus{t: t, replies: [][]byte{
		{0x40, 0x54, 0x40, '2', 0xA0, 0x70}, // truncated temperature reply
		{0x40, 0x46, 0x41, 0x01, 0x90, 0x00, 0x58},
	}}
	dev := NewDevice(bus)

	if _, err := dev.Temperature(0); !errors.Is(err, ErrFraming) {
		t.Fatalf("error=%v want ErrFraming", err)
	}

	// A well-formed exchange on the same device still succeeds.
	v, err := dev.FanSpeed(0)
	if err != nil {
		t.Fatalf("FanSpeed() error: %v", err)
	}
	if v != 12000 {
		t.Fatalf("fan1=%d want 12000", v)
	}
}

func TestDevicePWMRoundTrip(t *testing.T) {
	dev := NewDevice(NewDummyBus())

	for _, duty := range []int{0, 1, 64, 128, 254, 255} {
		if err := dev.SetPWM(1, duty); err != nil {
			t.Fatalf("SetPWM(%d) error: %v", duty, err)
		}

		v, err := dev.PWM(1)
		if err != nil {
			t.Fatalf("PWM() error: %v", err)
		}
		if int(v) != duty {
			t.Fatalf("pwm2=%d want %d", v, duty)
		}
	}
}

// exclusiveBus fails the test if two exchanges ever overlap.
type exclusiveBus struct {
	t        *testing.T
	inFlight atomic.Bool
	inner    Bus
}

func (b *exclusiveBus) SendCommand(req, resp []byte) (int, error) {
	if !b.inFlight.CompareAndSwap(false, true) {
		b.t.Error("concurrent bus exchange")
	}
	time.Sleep(time.Millisecond)
	defer b.inFlight.Store(false)

	return b.inner.SendCommand(req, resp)
}

func TestDeviceSerializesExchanges(t *testing.T) {
	dev := NewDevice(&exclusiveBus{t: t, inner: NewDummyBus()})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			switch i % 3 {
			case 0:
				if _, err := dev.Temperature(i % NumTemp); err != nil {
					t.Error(err)
				}
			case 1:
				if _, err := dev.FanSpeed(i % NumFan); err != nil {
					t.Error(err)
				}
			case 2:
				if _, err := dev.PWM(i % NumPWM); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
}
