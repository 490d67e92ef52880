package puzzled

import (
	"time"

	"github.com/mdouchement/puzzled/wt61p803"
)

// A Snapshot is one serving-surface reading of every channel, streamed to
// SSE watchers. Attribute reads stay live exchanges; snapshots exist only
// for the monitor stream.
type Snapshot struct {
	TakenAt      time.Time `json:"-"`
	Temperatures []int64   `json:"temperatures"` // milli-degrees Celsius
	Fans         []int64   `json:"fans"`         // RPM
	PWMs         []int64   `json:"pwms"`         // duty bytes
}

func ToPtr[T any](v T) *T {
	return &v
}

const (
	eventSnapshot        = "snapshot"
	eventWatch           = "watch"
	eventRefreshWatchers = "refresh-watchers"
	eventUnwatch         = "unwatch"
)

type event struct {
	name      string
	snapshot  Snapshot
	monitorID int64
	monitor   chan<- []byte
}

func genID() int64 {
	time.Sleep(time.Nanosecond)
	return time.Now().UnixNano()
}

func newSnapshot(p *Puzzle) Snapshot {
	s := Snapshot{
		TakenAt:      time.Now(),
		Temperatures: make([]int64, 0, wt61p803.NumTemp),
		Fans:         make([]int64, 0, wt61p803.NumFan),
		PWMs:         make([]int64, 0, wt61p803.NumPWM),
	}

	for ch := range wt61p803.NumTemp {
		v, err := p.dev.Temperature(ch)
		if err != nil {
			v = -1
		}
		s.Temperatures = append(s.Temperatures, int64(v))
	}

	for ch := range wt61p803.NumFan {
		v, err := p.dev.FanSpeed(ch)
		if err != nil {
			v = -1
		}
		s.Fans = append(s.Fans, int64(v))
	}

	for ch := range wt61p803.NumPWM {
		v, err := p.dev.PWM(ch)
		if err != nil {
			s.PWMs = append(s.PWMs, -1)
			continue
		}
		s.PWMs = append(s.PWMs, int64(v))
	}

	return s
}
