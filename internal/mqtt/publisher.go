// Package mqtt publishes the fused GPS state to an MQTT broker as JSON.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"gpsfuse/internal/gps"
)

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Interval time.Duration
}

// client is the subset of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	cfg    Config
	client client
	log    *zap.Logger

	published uint64
	failed    uint64
}

func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectTimeout(5 * time.Second)
	return newPublisher(cfg, paho.NewClient(opts), logger)
}

func newPublisher(cfg Config, c client, logger *zap.Logger) (*Publisher, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{cfg: cfg, client: c, log: logger.Named("mqtt")}, nil
}

// Run connects and publishes next() to the topic every interval until ctx is
// done. Messages are retained so late subscribers get the last state.
func (p *Publisher) Run(ctx context.Context, next func() gps.Snapshot) error {
	tok := p.client.Connect()
	if !waitToken(ctx, tok) {
		return nil
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.cfg.Broker, err)
	}
	p.log.Info("mqtt connected", zap.String("broker", p.cfg.Broker), zap.String("topic", p.cfg.Topic))
	defer p.client.Disconnect(250)

	t := time.NewTicker(p.cfg.Interval)
	defer t.Stop()
	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := p.publish(ctx, next()); err != nil {
			p.failed++
			if p.failed == 1 || p.failed%100 == 0 {
				p.log.Warn("mqtt publish failed", zap.Uint64("failures", p.failed), zap.Error(err))
			}
			continue
		}
		p.published++
	}
}

func (p *Publisher) publish(ctx context.Context, snap gps.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	tok := p.client.Publish(p.cfg.Topic, 0, true, payload)
	if !waitToken(ctx, tok) {
		return ctx.Err()
	}
	return tok.Error()
}

// waitToken waits for tok or ctx; false means ctx ended first.
func waitToken(ctx context.Context, tok paho.Token) bool {
	select {
	case <-tok.Done():
		return true
	case <-ctx.Done():
		return false
	}
}

// Counts returns how many publishes succeeded and failed. Only valid after
// Run has returned.
func (p *Publisher) Counts() (published, failed uint64) {
	return p.published, p.failed
}
