package ingest

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"go.uber.org/zap"

	"github.com/gwillem/roomba/pkg/sequence"
)

// MQTTSource subscribes to a topic; every message payload is one sequence.
type MQTTSource struct {
	Broker    string
	Topic     string
	ClientID  string
	QoS       byte
	MaxLength int
	Log       *zap.Logger

	ctx     context.Context
	handler Handler
}

var _ Source = (*MQTTSource)(nil)

// NewMQTTSource returns a source with default limits.
func NewMQTTSource(broker, topic, clientID string, log *zap.Logger) *MQTTSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTSource{
		Broker:    broker,
		Topic:     topic,
		ClientID:  clientID,
		QoS:       1,
		MaxLength: sequence.MaxLength,
		Log:       log,
	}
}

// Run connects, subscribes and delivers messages until ctx is done.
func (s *MQTTSource) Run(ctx context.Context, h Handler) error {
	brokerURL, err := url.Parse(s.Broker)
	if err != nil {
		return fmt.Errorf("parse broker url: %w", err)
	}
	if s.Topic == "" {
		return fmt.Errorf("mqtt topic is required")
	}
	s.ctx, s.handler = ctx, h

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		ReconnectBackoff:              autopaho.NewConstantBackoff(3 * time.Second),
		ConnectTimeout:                5 * time.Second,
		OnConnectionUp:                s.onConnectionUp,
		OnConnectError: func(err error) {
			s.Log.Error("mqtt connection failed, retrying", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: s.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				s.onPublish,
			},
			OnClientError: func(err error) {
				s.Log.Error("mqtt client error", zap.Error(err))
			},
		},
	}

	s.Log.Info("starting mqtt source", zap.String("broker", s.Broker), zap.String("topic", s.Topic))
	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", s.Broker, err)
	}

	<-ctx.Done()
	s.disconnect(cm)
	return ctx.Err()
}

type disconnecter interface {
	Disconnect(ctx context.Context) error
}

func (s *MQTTSource) disconnect(cm disconnecter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cm.Disconnect(ctx); err != nil {
		s.Log.Warn("mqtt disconnect failed", zap.String("broker", s.Broker), zap.Error(err))
	}
}

func (s *MQTTSource) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	s.Log.Info("mqtt connection established")
	if _, err := cm.Subscribe(s.ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: s.Topic, QoS: s.QoS}},
	}); err != nil {
		s.Log.Error("subscribe failed", zap.String("topic", s.Topic), zap.Error(err))
	}
}

func (s *MQTTSource) onPublish(p paho.PublishReceived) (bool, error) {
	if p.Packet == nil || p.Packet.Topic != s.Topic {
		return false, nil
	}
	raw := sequence.Normalize(string(p.Packet.Payload))
	if s.MaxLength > 0 && len(raw) > s.MaxLength {
		s.Log.Warn("dropping over-long sequence", zap.Int("len", len(raw)), zap.Int("max", s.MaxLength))
		return true, nil
	}
	s.Log.Info("received move sequence", zap.String("sequence", raw))
	s.handler(s.ctx, raw)
	return true, nil
}
