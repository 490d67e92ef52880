package wt61p803

import (
	"fmt"
	"sync"
)

// A DummyBus emulates the MCU in memory and should only be used for dev &
// tests. Duties written to it are stored, fan speeds are synthesized from
// them and temperatures are fixed.
type DummyBus struct {
	sync  sync.Mutex
	duty  [NumPWM]byte
	temps [NumTemp]byte
}

func NewDummyBus() *DummyBus {
	return &DummyBus{
		temps: [NumTemp]byte{0x80 + 32, 0x80 + 28}, // 32°C and 28°C
	}
}

func (b *DummyBus) SendCommand(req, resp []byte) (int, error) {
	b.sync.Lock()
	defer b.sync.Unlock()

	if len(req) < 3 || req[0] != CmdHeaderStart {
		return 0, fmt.Errorf("dummy: unknown frame %#02x", req[0])
	}

	switch req[1] {
	case CmdTemp:
		return b.reply(resp, CmdHeaderStart, CmdTemp, CmdHeaderStart, '2', b.temps[0], b.temps[1]), nil
	case CmdFan:
		return b.fan(req, resp)
	}

	return 0, fmt.Errorf("dummy: unknown command %#02x", req[1])
}

func (b *DummyBus) fan(req, resp []byte) (int, error) {
	switch {
	case req[2] == CmdFanPWMRead:
		channel := int(req[3] - cmdFanPWMBase)
		if channel < 0 || channel >= NumPWM {
			return 0, fmt.Errorf("dummy: pwm_read channel %d", channel)
		}

		return b.reply(resp, CmdHeaderStart, CmdFan, CmdFanPWMRead, b.duty[channel]), nil

	case req[2] == CmdFanPWMWrite:
		channel := int(req[3] - cmdFanPWMBase)
		if channel < 0 || channel >= NumPWM {
			return 0, fmt.Errorf("dummy: pwm_write channel %d", channel)
		}

		b.duty[channel] = req[4]
		return b.reply(resp, CmdHeaderStart, CmdResponseOK), nil

	default:
		channel := int(req[2] - cmdFanRPMBase)
		if channel < 0 || channel >= NumFan {
			return 0, fmt.Errorf("dummy: fan_rpm channel %d", channel)
		}

		// Both PWM outputs drive fans, extra tach channels idle at zero.
		// raw/2*60 is the RPM conversion, so raw 100 reads as 3000 RPM
		// at full duty.
		var raw uint16
		if channel < NumPWM {
			raw = uint16(b.duty[channel]) * 100 / MaxPWM
		}

		return b.reply(resp, CmdHeaderStart, CmdFan, CmdFanRPM(channel), byte(raw>>8), byte(raw), 0), nil
	}
}

func (b *DummyBus) reply(resp []byte, payload ...byte) int {
	n := copy(resp, payload)
	resp[n] = Checksum(resp[:n])
	return n + 1
}
