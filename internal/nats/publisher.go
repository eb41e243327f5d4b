package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// Subject suffixes below the configured base, e.g. "suspension.status".
const (
	SubjectStatus  = "status"
	SubjectLive    = "live"
	SubjectResult  = "result"
	SubjectCommand = "command"
)

// Publisher manages the connection to NATS and the test data subjects.
// Publishing while disconnected is a no-op so the acquisition path
// never depends on the broker being up.
type Publisher struct {
	conn    *nats.Conn
	base    string
	mutex   sync.Mutex
	enabled bool
}

// NewPublisher creates a publisher for the given base subject.
func NewPublisher(base string) *Publisher {
	return &Publisher{
		base:    base,
		enabled: false,
	}
}

// Connect dials the NATS server with automatic reconnection.
func (p *Publisher) Connect(natsURL string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	opts := []nats.Option{
		nats.Name("Suspension-Tester-Publisher"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected: %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	var err error
	p.conn, err = nats.Connect(natsURL, opts...)
	if err != nil {
		p.enabled = false
		return fmt.Errorf("failed to connect to NATS: %v", err)
	}

	p.enabled = true
	log.Printf("NATS connected: %s", natsURL)
	return nil
}

// PublishStatus publishes the periodic system status.
func (p *Publisher) PublishStatus(status models.SystemStatus) error {
	return p.publish(p.subject(SubjectStatus), status)
}

// PublishLiveData publishes a chart snapshot for streaming consumers.
func (p *Publisher) PublishLiveData(data models.LiveData) error {
	return p.publish(p.subject(SubjectLive), data)
}

// PublishResult publishes the final evaluation of a finished test.
func (p *Publisher) PublishResult(status models.EGEAStatus) error {
	return p.publish(p.subject(SubjectResult), status)
}

// PublishWithSubject publishes to an arbitrary subject.
func (p *Publisher) PublishWithSubject(subject string, data interface{}) error {
	return p.publish(subject, data)
}

func (p *Publisher) publish(subject string, data interface{}) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize data: %v", err)
	}

	if err := p.conn.Publish(subject, jsonData); err != nil {
		return fmt.Errorf("failed to publish on %s: %v", subject, err)
	}

	return nil
}

// PublishRaw publishes raw bytes to a subject.
func (p *Publisher) PublishRaw(subject string, data []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		return nil
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish on %s: %v", subject, err)
	}

	return nil
}

// SubscribeCommands registers a handler for command messages (start,
// stop, clear) arriving on the command subject.
func (p *Publisher) SubscribeCommands(handler func(data []byte)) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		return fmt.Errorf("not connected to NATS")
	}

	_, err := p.conn.Subscribe(p.subject(SubjectCommand), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to commands: %v", err)
	}

	return nil
}

// Request sends a request and waits for the reply.
func (p *Publisher) Request(subject string, data interface{}, timeout time.Duration) ([]byte, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		return nil, fmt.Errorf("not connected to NATS")
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize data: %v", err)
	}

	msg, err := p.conn.Request(subject, jsonData, timeout)
	if err != nil {
		return nil, fmt.Errorf("NATS request failed: %v", err)
	}

	return msg.Data, nil
}

// Disconnect closes the connection.
func (p *Publisher) Disconnect() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.enabled = false
		log.Println("NATS disconnected")
	}
}

// IsConnected reports whether the connection is up.
func (p *Publisher) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled && p.conn != nil && p.conn.IsConnected()
}

// IsEnabled reports whether Connect succeeded at least once.
func (p *Publisher) IsEnabled() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled
}

func (p *Publisher) subject(suffix string) string {
	return p.base + "." + suffix
}
