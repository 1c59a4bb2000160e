package metrics

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/infra/logger"
)

// MQTTConfig defines the broker connection and publication settings.
type MQTTConfig struct {
	Broker    string `json:"broker"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Topic     string `json:"topic"`
	QoS       byte   `json:"qos"`
	Retain    bool   `json:"retain"`
	TimeoutMS int    `json:"timeout_ms"`
}

func (c *MQTTConfig) setDefaults() {
	if c.Topic == "" {
		c.Topic = "traffic/predictions"
	}
	if c.ClientID == "" {
		c.ClientID = "metrotraffic-" + uuid.NewString()[:8]
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 2000
	}
}

type mqttPublisher interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) mqttPublisher {
	return paho.NewClient(opts)
}

// MQTTSink publishes every prediction event as JSON so downstream consumers
// (dashboards, signage controllers) can react to forecasts.
type MQTTSink struct {
	cli     mqttPublisher
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTSink connects to the broker described by cfg.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt sink: broker is required")
	}
	cfg.setDefaults()
	log := logger.New("mqtt-sink")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if token := cli.Connect(); !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	log.Infof("publishing predictions to %s on %s", cfg.Topic, cfg.Broker)
	return &MQTTSink{
		cli:     cli,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: timeout,
		log:     log,
	}, nil
}

// RecordPrediction publishes successful predictions. Rejected requests are
// not forwarded.
func (s *MQTTSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	if ev.Outcome != coremetrics.OutcomeOK {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.publish(s.topic, s.retain, payload)
}

// RecordModelState publishes a retained status message under <topic>/model.
func (s *MQTTSink) RecordModelState(loaded bool, version string) error {
	payload, err := json.Marshal(map[string]any{"model_loaded": loaded, "model_version": version})
	if err != nil {
		return err
	}
	return s.publish(s.topic+"/model", true, payload)
}

func (s *MQTTSink) publish(topic string, retain bool, payload []byte) error {
	token := s.cli.Publish(topic, s.qos, retain, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	if s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
	return nil
}
