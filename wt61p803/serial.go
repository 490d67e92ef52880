package wt61p803

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

var (
	ErrTimeout  = errors.New("MCU reply timeout")
	ErrChecksum = errors.New("MCU reply checksum mismatch")
)

// SerialBus drives the MCU over its serial line. It owns the wire-level
// discipline: the trailing checksum byte of each frame, the read timeout
// and the buffer hygiene of the port.
type SerialBus struct {
	pname string
	port  serial.Port
}

// OpenSerial opens the MCU serial line at the given baud rate, 8N1.
func OpenSerial(pname string, baud int) (*SerialBus, error) {
	b := &SerialBus{pname: pname}

	var err error
	b.port, err = serial.Open(pname, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	b.port.SetReadTimeout(200 * time.Millisecond)

	if err = b.port.ResetInputBuffer(); err != nil {
		return nil, err
	}

	if err = b.port.ResetOutputBuffer(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *SerialBus) Port() string {
	return b.pname
}

func (b *SerialBus) Close() error {
	if err := b.port.ResetInputBuffer(); err != nil {
		return err
	}

	if err := b.port.ResetOutputBuffer(); err != nil {
		return err
	}

	return b.port.Close()
}

// SendCommand fills the request's checksum byte, emits the frame and reads
// the MCU reply into resp. The reply's own trailing checksum is verified
// before the frame is surfaced.
func (b *SerialBus) SendCommand(req, resp []byte) (int, error) {
	if len(req) < 2 || len(req) > BufSize {
		return 0, fmt.Errorf("write: request length %d: %w", len(req), ErrFraming)
	}

	req[len(req)-1] = Checksum(req[:len(req)-1])

	n, err := b.port.Write(req)
	if err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	if n != len(req) {
		return 0, fmt.Errorf("write: short write %d of %d", n, len(req))
	}

	var total int
	for total < len(resp) {
		n, err = b.port.Read(resp[total:])
		if err != nil {
			return 0, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			// Timeout expired, the MCU is done talking.
			break
		}

		total += n
	}

	if total == 0 {
		return 0, fmt.Errorf("read: %w", ErrTimeout)
	}

	if resp[total-1] != Checksum(resp[:total-1]) {
		return 0, fmt.Errorf("read: %w", ErrChecksum)
	}

	return total, nil
}

// Checksum is the low byte of the sum of a frame's payload. The MCU expects
// it as the last byte of every request and appends it to every reply.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}

	return sum
}
