package logic

import "time"

// Heartbeat decides when a periodic status beat is due.
type Heartbeat struct {
	startTime time.Time
	last      time.Time
	counts    EventCounts
}

// NewHeartbeat creates a heartbeat whose first beat is due one interval after startTime.
func NewHeartbeat(startTime time.Time) *Heartbeat {
	return &Heartbeat{startTime: startTime, last: startTime}
}

// Record counts events for the next heartbeat.
func (h *Heartbeat) Record(events ...Event) {
	h.counts.Add(events...)
}

// Counts returns the event counts since startup.
func (h *Heartbeat) Counts() EventCounts {
	return h.counts
}

// Check returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup). Returns nil if the interval has not elapsed or is
// <= 0 (disabled).
func (h *Heartbeat) Check(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(h.last) < interval {
		return nil
	}

	h.last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Counts:    h.counts,
	}
}
