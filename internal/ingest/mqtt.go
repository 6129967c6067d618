// FilePath: internal/ingest/mqtt.go
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sensormagics/telemetry-hub/internal/config"
	nuts "github.com/vaudience/go-nuts"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is the grace period paho gets to flush in-flight
	// work on shutdown, in milliseconds.
	disconnectQuiesce = 250
)

// Consumer subscribes to the device telemetry topic and feeds every message
// through the ingest pipeline.
type Consumer struct {
	client   mqtt.Client
	pipeline *Pipeline
	topic    string
	qos      byte
}

// NewConsumer builds the broker client. Connect/resubscribe is handled in
// OnConnect so a broker restart picks the subscription back up.
func NewConsumer(cfg config.BrokerConfig, pipeline *Pipeline) *Consumer {
	consumer := &Consumer{
		pipeline: pipeline,
		topic:    cfg.Topic,
		qos:      byte(cfg.QoS),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		// Handlers run in their own goroutines so one device's slow DB
		// write never stalls another device's messages. Readings carry
		// their own timestamps, so cross-message ordering is not needed.
		SetOrderMatters(false)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		nuts.L.Infof("[Broker] Connected to %s, subscribing to %s", cfg.URL, consumer.topic)
		token := client.Subscribe(consumer.topic, consumer.qos, consumer.handleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			nuts.L.Errorf("[Broker] Subscribe to %s failed: %v", consumer.topic, err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		nuts.L.Warnf("[Broker] Connection lost: %v", err)
	})

	consumer.client = mqtt.NewClient(opts)
	return consumer
}

// Start connects to the broker. The OnConnect handler performs the
// subscription.
func (c *Consumer) Start() error {
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (c *Consumer) Stop() {
	c.client.Disconnect(disconnectQuiesce)
	nuts.L.Infof("[Broker] Disconnected")
}

// Publish sends a payload onto the telemetry topic for the given device.
// The HTTP relay endpoint uses it to put payloads on the same path as
// direct broker traffic.
func (c *Consumer) Publish(deviceID string, payload []byte) error {
	topic := publishTopic(c.topic, deviceID)
	token := c.client.Publish(topic, c.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func (c *Consumer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	deviceID := deviceIDFromTopic(msg.Topic())
	// A rejected message is already logged and counted by the pipeline.
	// There is nobody to answer on the broker path, so the error stops here.
	_, _ = c.pipeline.Process(context.Background(), SourceBroker, deviceID, msg.Payload())
}

// deviceIDFromTopic extracts the device ID from a telemetry topic of the
// shape "weather_data/{deviceId}[/...]".
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// publishTopic turns the wildcard subscription topic into a concrete topic
// for one device.
func publishTopic(subscription, deviceID string) string {
	base := strings.TrimSuffix(subscription, "/#")
	return base + "/" + deviceID
}
