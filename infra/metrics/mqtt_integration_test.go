package metrics

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/model"
)

// TestMQTTSink_Integration publishes through a real Mosquitto broker.
func TestMQTTSink_Integration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	received := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("it/predictions", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Payload()
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	sink, err := NewMQTTSink(MQTTConfig{Broker: broker, Topic: "it/predictions", QoS: 1, TimeoutMS: 5000})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	defer func() { _ = sink.Close() }()
	if err := sink.RecordPrediction(coremetrics.PredictionEvent{
		RequestID: "it", Features: model.DefaultFeatures(), Volume: 2500, Outcome: coremetrics.OutcomeOK,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case msg := <-received:
		if len(msg) == 0 {
			t.Fatal("empty payload")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}
