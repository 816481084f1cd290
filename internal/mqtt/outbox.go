package mqtt

import (
	"sync"

	"go.uber.org/zap"
)

// message is a serialized publish kept for replay once the broker is back.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected. When full the oldest
// message is overwritten; the first overwrite after each flush is logged.
type outbox struct {
	mu       sync.Mutex
	items    []message
	capacity int
	head     int
	size     int
	dropped  int
	log      *zap.Logger
}

func newOutbox(capacity int, log *zap.Logger) *outbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &outbox{
		items:    make([]message, capacity),
		capacity: capacity,
		log:      log,
	}
}

// add queues m and reports whether an older message was lost to make room.
func (o *outbox) add(m message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.items[o.head] = m
	o.head = (o.head + 1) % o.capacity
	if o.size < o.capacity {
		o.size++
		return false
	}

	o.dropped++
	if o.dropped == 1 {
		o.log.Warn("mqtt outbox full, dropping oldest messages", zap.Int("capacity", o.capacity))
	}
	return true
}

// flush returns the queued messages oldest first and empties the outbox.
// The returned slice is a copy.
func (o *outbox) flush() []message {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.size == 0 {
		return nil
	}
	if o.dropped > 0 {
		o.log.Info("mqtt outbox dropped messages while offline", zap.Int("dropped", o.dropped))
	}

	out := make([]message, o.size)
	tail := (o.head - o.size + o.capacity) % o.capacity
	for i := range out {
		out[i] = o.items[(tail+i)%o.capacity]
	}

	o.size = 0
	o.head = 0
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.size
}
