package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pwshub/weathercloud-hub/internal/config"
	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

// Publisher fans assembled reports out over MQTT, one topic per station.
type Publisher struct {
	client    mqtt.Client
	prefix    string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// ReportTopic is where a station's reports are published.
func ReportTopic(prefix, id string) string {
	return fmt.Sprintf("%s/%s/report", prefix, id)
}

func NewPublisher(cfg *config.AppConfig, logger *slog.Logger) *Publisher {
	p := &Publisher{
		prefix: cfg.MQTTTopicPrefix,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = "weathercloud-hub-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(clientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect establishes the broker connection. It waits for the initial
// connection and respects ctx and Disconnect().
func (p *Publisher) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	// Fast path.
	if p.IsConnected() {
		return nil
	}

	// With ConnectRetry(true) the attempt may keep retrying internally.
	token := p.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// PublishReport publishes one assembled report to the station topic.
func (p *Publisher) PublishReport(id string, report *weathercloud.WeatherReport) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt publisher not connected")
	}

	topic := ReportTopic(p.prefix, id)

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		p.logger.Error("failed to publish report", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish report: %w", token.Error())
	}

	p.logger.Debug("published report", "topic", topic, "station", id)
	return nil
}

// IsConnected returns whether the publisher is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the broker connection.
// Idempotent; after Disconnect, Connect() reports the publisher stopped.
func (p *Publisher) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	p.stopOnce.Do(func() { close(p.stopCh) })

	// Paho Disconnect quiesces in-flight work for the given ms.
	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
