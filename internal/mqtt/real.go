package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/logic"
)

// outboxCapacity is the number of messages kept while the broker is unreachable.
const outboxCapacity = 100

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Logger   *zap.Logger
	// OnReconnect, if set, is called with the publisher after a lost
	// connection is re-established and the outbox has been replayed. It runs
	// on the client's goroutine and must not block.
	OnReconnect func(p *RealPublisher)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are kept in an outbox and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger

	outbox      *outbox
	onReconnect func(*RealPublisher)

	mu      sync.Mutex
	wasLost bool
}

// NewRealPublisher connects to the broker. A shutdown will message is
// registered so subscribers notice an unclean exit. An unreachable broker is
// not an error; the client keeps retrying.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &RealPublisher{
		log:         log,
		outbox:      newOutbox(outboxCapacity, log),
		onReconnect: o.OnReconnect,
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// With connect retry the token completes only once the broker answers.
		// Until then publishes go to the outbox.
		log.Warn("mqtt broker not reachable, retrying in background", zap.String("broker", o.Broker))
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.wasLost = true
	p.mu.Unlock()
	p.log.Warn("mqtt connection lost", zap.Error(err))
}

func (p *RealPublisher) onConnect(c paho.Client) {
	pending := p.outbox.flush()

	p.mu.Lock()
	reconnected := p.wasLost
	p.wasLost = false
	p.mu.Unlock()

	if len(pending) > 0 {
		p.log.Info("mqtt replaying queued messages", zap.Int("count", len(pending)))
	}
	for _, m := range pending {
		// Replay runs on paho's goroutine, so don't wait for acks here.
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	if reconnected {
		p.log.Info("mqtt reconnected")
		if p.onReconnect != nil {
			p.onReconnect(p)
		}
	}
}

// Publish sends a plant event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.send(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.outbox.add(message{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
