package web

import (
	"sync/atomic"
	"time"

	"gpsfuse/internal/gps"
)

// GPSSource is the part of gps.Service the web UI reads.
type GPSSource interface {
	Snapshot() gps.Snapshot
	RecentLines() []gps.Received
}

type Status struct {
	startUnixNano int64
	src           GPSSource
	outputs       atomic.Value // map[string]any
}

func NewStatus(src GPSSource) *Status {
	s := &Status{src: src}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.outputs.Store(map[string]any{})
	return s
}

// SetOutputs records the static description of the enabled outputs
// (UDP destination, MQTT broker...).
func (s *Status) SetOutputs(outputs map[string]any) {
	if outputs != nil {
		s.outputs.Store(outputs)
	}
}

type StatusSnapshot struct {
	Service   string         `json:"service"`
	NowUTC    string         `json:"now_utc"`
	UptimeSec int64          `json:"uptime_sec"`
	Outputs   map[string]any `json:"outputs"`
	GPS       gps.Snapshot   `json:"gps"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "gpsfuse",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Outputs:   s.outputs.Load().(map[string]any),
	}
	if s.src != nil {
		snap.GPS = s.src.Snapshot()
	}
	return snap
}

func (s *Status) recentLines() []gps.Received {
	if s.src == nil {
		return nil
	}
	return s.src.RecentLines()
}
