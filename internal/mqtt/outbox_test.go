package mqtt

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func addN(o *outbox, from, to int) {
	for i := from; i < to; i++ {
		o.add(message{topic: Topic, payload: []byte{byte(i)}})
	}
}

func firstBytes(msgs []message) []byte {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = m.payload[0]
	}
	return out
}

func TestOutboxEmptyFlush(t *testing.T) {
	o := newOutbox(4, nil)
	if got := o.flush(); got != nil {
		t.Errorf("expected nil from empty flush, got %d messages", len(got))
	}
}

func TestOutboxOrder(t *testing.T) {
	tests := []struct {
		name  string
		added int
		want  []byte
	}{
		{"partial", 3, []byte{0, 1, 2}},
		{"exactly full", 4, []byte{0, 1, 2, 3}},
		{"wrapped once", 6, []byte{2, 3, 4, 5}},
		{"wrapped twice", 9, []byte{5, 6, 7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOutbox(4, nil)
			addN(o, 0, tt.added)
			if got := firstBytes(o.flush()); string(got) != string(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if o.len() != 0 {
				t.Errorf("expected empty outbox after flush, got %d", o.len())
			}
		})
	}
}

func TestOutboxReportsDrops(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	o := newOutbox(2, zap.New(core))
	addN(o, 0, 2)

	if !o.add(message{topic: Topic, payload: []byte{9}}) {
		t.Error("add into a full outbox should report a drop")
	}
	o.add(message{topic: Topic, payload: []byte{10}})
	if n := logs.FilterMessage("mqtt outbox full, dropping oldest messages").Len(); n != 1 {
		t.Errorf("expected a single warning per offline period, got %d", n)
	}

	o.flush()
	addN(o, 0, 3)
	if n := logs.FilterMessage("mqtt outbox full, dropping oldest messages").Len(); n != 2 {
		t.Errorf("expected a new warning after a flush, got %d", n)
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(10, nil)
	o.add(message{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := o.flush()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].topic != TopicSystem || string(got[0].payload) != `{"test":true}` {
		t.Errorf("unexpected message %+v", got[0])
	}
	if got[0].qos != 1 || !got[0].retained {
		t.Errorf("qos/retained not preserved: %+v", got[0])
	}
}
