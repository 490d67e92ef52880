package wt61p803

import (
	"fmt"
	"sync"

	"github.com/mdouchement/logger"
)

// A Bus carries one request/response exchange with the MCU. The response is
// written into resp and its length returned. Implementations own framing,
// checksums, timeouts and retries; any error they return is final for the
// current operation.
type Bus interface {
	SendCommand(req, resp []byte) (int, error)
}

// A Device is the typed facade over one MCU. Every exchange holds the
// transaction mutex for its whole duration: the response buffer is shared
// and validated bytes are extracted before the lock is released.
type Device struct {
	sync sync.Mutex
	bus  Bus
	resp [BufSize]byte
	log  logger.Logger
}

// NewDevice wraps a bus handle. The bus is borrowed, closing it remains the
// caller's concern.
func NewDevice(bus Bus) *Device {
	return &Device{bus: bus}
}

func (d *Device) SetLogger(l logger.Logger) {
	d.log = l
}

// Temperature returns the NTC reading of the given channel in milli-degrees
// Celsius. The MCU reports all sensors in one reply.
func (d *Device) Temperature(channel int) (int32, error) {
	if channel < 0 || channel >= NumTemp {
		return 0, fmt.Errorf("temp_all: channel %d: %w", channel, ErrInvalidChannel)
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	n, err := d.bus.SendCommand(TempAllCommand(), d.resp[:])
	if err != nil {
		return 0, fmt.Errorf("temp_all: %w", err)
	}

	if err = ValidateTempAll(d.resp[:n]); err != nil {
		return 0, err
	}

	value := MilliCelsius(d.resp[4+channel])
	d.debugf("temp%d: %d m°C", channel+1, value)
	return value, nil
}

// FanSpeed returns the tachometer reading of the given channel in RPM.
func (d *Device) FanSpeed(channel int) (int32, error) {
	req, err := FanSpeedCommand(channel)
	if err != nil {
		return 0, err
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	n, err := d.bus.SendCommand(req, d.resp[:])
	if err != nil {
		return 0, fmt.Errorf("fan_rpm: %w", err)
	}

	if err = ValidateFanSpeed(d.resp[:n]); err != nil {
		return 0, err
	}

	value := RPM(d.resp[3], d.resp[4])
	d.debugf("fan%d: %d RPM", channel+1, value)
	return value, nil
}

// PWM returns the current duty cycle of the given PWM channel.
func (d *Device) PWM(channel int) (byte, error) {
	req, err := PWMReadCommand(channel)
	if err != nil {
		return 0, err
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	n, err := d.bus.SendCommand(req, d.resp[:])
	if err != nil {
		return 0, fmt.Errorf("pwm_read: %w", err)
	}

	if err = ValidatePWMRead(d.resp[:n]); err != nil {
		return 0, err
	}

	return d.resp[3], nil
}

// SetPWM sets the duty cycle of the given PWM channel. Duties outside
// [0, MaxPWM] are rejected before any bus traffic.
func (d *Device) SetPWM(channel, duty int) error {
	req, err := PWMWriteCommand(channel, duty)
	if err != nil {
		return err
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	n, err := d.bus.SendCommand(req, d.resp[:])
	if err != nil {
		return fmt.Errorf("pwm_write: %w", err)
	}

	if err = ValidatePWMWrite(d.resp[:n]); err != nil {
		return err
	}

	d.debugf("pwm%d: set %d", channel+1, duty)
	return nil
}

func (d *Device) debugf(format string, args ...any) {
	if d.log != nil {
		d.log.Debugf(format, args...)
	}
}
