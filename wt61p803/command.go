package wt61p803

import (
	"errors"
	"fmt"
)

var (
	ErrFraming        = errors.New("malformed MCU reply")
	ErrInvalidChannel = errors.New("invalid channel")
	ErrInvalidPWM     = errors.New("invalid PWM value")
)

type Command = byte

// Request builders. The last byte of every frame is left zero for the bus
// transport to fill with the frame checksum.

func TempAllCommand() []byte {
	return []byte{CmdHeaderStart, CmdTemp, CmdTempAll, 0}
}

func FanSpeedCommand(channel int) ([]byte, error) {
	if channel < 0 || channel >= NumFan {
		return nil, fmt.Errorf("fan_rpm: channel %d: %w", channel, ErrInvalidChannel)
	}

	return []byte{CmdHeaderStart, CmdFan, CmdFanRPM(channel), 0}, nil
}

func PWMReadCommand(channel int) ([]byte, error) {
	if channel < 0 || channel >= NumPWM {
		return nil, fmt.Errorf("pwm_read: channel %d: %w", channel, ErrInvalidChannel)
	}

	return []byte{CmdHeaderStart, CmdFan, CmdFanPWMRead, CmdFanPWM(channel), 0}, nil
}

func PWMWriteCommand(channel, duty int) ([]byte, error) {
	if channel < 0 || channel >= NumPWM {
		return nil, fmt.Errorf("pwm_write: channel %d: %w", channel, ErrInvalidChannel)
	}
	if duty < 0 || duty > MaxPWM {
		return nil, fmt.Errorf("pwm_write: duty %d: %w", duty, ErrInvalidPWM)
	}

	return []byte{CmdHeaderStart, CmdFan, CmdFanPWMWrite, CmdFanPWM(channel), byte(duty), 0}, nil
}

// Reply validators. Any deviation from a verb's reply contract is a hard
// framing error, there is no recovery at this layer.

func ValidateTempAll(resp []byte) error {
	if len(resp) != 7 {
		return fmt.Errorf("temp_all: reply length %d: %w", len(resp), ErrFraming)
	}
	// The MCU advertises the number of NTC readings it carries.
	if resp[3] != '2' {
		return fmt.Errorf("temp_all: NTC count %#02x: %w", resp[3], ErrFraming)
	}

	return nil
}

func ValidateFanSpeed(resp []byte) error {
	if len(resp) != 7 {
		return fmt.Errorf("fan_rpm: reply length %d: %w", len(resp), ErrFraming)
	}

	return nil
}

func ValidatePWMRead(resp []byte) error {
	if len(resp) != 5 {
		return fmt.Errorf("pwm_read: reply length %d: %w", len(resp), ErrFraming)
	}
	if resp[2] != CmdFanPWMRead {
		return fmt.Errorf("pwm_read: tag %#02x: %w", resp[2], ErrFraming)
	}

	return nil
}

func ValidatePWMWrite(resp []byte) error {
	if len(resp) != 3 {
		return fmt.Errorf("pwm_write: reply length %d: %w", len(resp), ErrFraming)
	}
	if resp[0] != CmdHeaderStart || resp[1] != CmdResponseOK || resp[2] != ChecksumResponseOK {
		return fmt.Errorf("pwm_write: ack %#02x %#02x %#02x: %w", resp[0], resp[1], resp[2], ErrFraming)
	}

	return nil
}
