// Package mqtt implements the tempo-sync peer over MQTT: when enabled, every
// published estimate is forwarded to a broker topic for downstream consumers.
package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds, paho's Disconnect unit
)

// Config holds the MQTT connection parameters.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// Peer is a tempo-sync collaborator publishing BPM values to an MQTT topic.
// Enable and SetBPM are fire-and-forget per the sync peer contract; failures
// are logged, never propagated into the analysis loop.
type Peer struct {
	config Config
	log    *slog.Logger

	mu     sync.Mutex
	client pahomqtt.Client
}

// NewPeer creates a Peer from settings. No connection is made until Enable.
func NewPeer(settings *conf.Settings) *Peer {
	return &Peer{
		config: Config{
			Broker:   settings.Realtime.MQTT.Broker,
			ClientID: settings.Main.Name,
			Topic:    settings.Realtime.MQTT.Topic,
			Username: settings.Realtime.MQTT.Username,
			Password: settings.Realtime.MQTT.Password,
		},
		log: logging.ForService("mqtt"),
	}
}

// Enable connects to the broker when enabled is true and disconnects when
// false. Repeated calls with the same state are no-ops.
func (p *Peer) Enable(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if enabled {
		if p.client != nil && p.client.IsConnected() {
			return
		}

		opts := pahomqtt.NewClientOptions().
			AddBroker(p.config.Broker).
			SetClientID(p.config.ClientID).
			SetConnectTimeout(connectTimeout).
			SetAutoReconnect(true)
		if p.config.Username != "" {
			opts.SetUsername(p.config.Username)
			opts.SetPassword(p.config.Password)
		}

		client := pahomqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			p.log.Warn("timeout connecting to MQTT broker", "broker", p.config.Broker)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warn("error connecting to MQTT broker", "broker", p.config.Broker, "error", err)
			return
		}

		p.client = client
		p.log.Info("connected to MQTT broker", "broker", p.config.Broker, "topic", p.config.Topic)
		return
	}

	if p.client != nil {
		p.client.Disconnect(disconnectQuiesce)
		p.client = nil
		p.log.Info("disconnected from MQTT broker")
	}
}

// SetBPM publishes the BPM value to the configured topic. Dropped silently
// when the peer is disabled or disconnected.
func (p *Peer) SetBPM(bpm float64) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return
	}

	payload := fmt.Sprintf("%.2f", bpm)
	token := client.Publish(p.config.Topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			p.log.Warn("error publishing BPM", "topic", p.config.Topic, "error", err)
		}
	}()
}
