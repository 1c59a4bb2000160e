package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/metrotraffic/app"
	"github.com/kilianp07/metrotraffic/client"
	"github.com/kilianp07/metrotraffic/config"
	"github.com/kilianp07/metrotraffic/core/audit"
	"github.com/kilianp07/metrotraffic/core/factory"
	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/model"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
	mqttTopic    = "e2e/predictions"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

func dockerAvailable(t *testing.T) {
	t.Helper()
	if v := os.Getenv("DOCKER_AVAILABLE"); v != "true" && v != "1" {
		t.Skip("docker not available")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token, and returns it along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a basic Mosquitto broker for tests.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func subscribe(t *testing.T, broker string) <-chan []byte {
	t.Helper()
	msgs := make(chan []byte, 4)
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-listener")
	cli := paho.NewClient(opts)
	tok := cli.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second), "connect timeout")
	require.NoError(t, tok.Error())
	t.Cleanup(func() { cli.Disconnect(250) })
	sub := cli.Subscribe(mqttTopic, 1, func(_ paho.Client, m paho.Message) {
		msgs <- m.Payload()
	})
	require.True(t, sub.WaitTimeout(10*time.Second), "subscribe timeout")
	require.NoError(t, sub.Error())
	return msgs
}

// Test_E2E_PredictionPipeline serves the traffic API with the Influx and MQTT
// sinks and a sqlite audit store, sends predictions through the HTTP client
// and reads every side effect back from the real backends.
func Test_E2E_PredictionPipeline(t *testing.T) {
	dockerAvailable(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	start := time.Now()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, broker := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", broker)

	influx := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer influx.Close()
	require.NoError(t, influx.SetupBucket(ctx))
	msgs := subscribe(t, broker)

	cfg := config.Default()
	cfg.Model.Pipeline.Conf["path"] = "../models/traffic_pipeline.json"
	cfg.Audit.Backend = "sqlite"
	cfg.Audit.Path = filepath.Join(t.TempDir(), "predictions.db")
	cfg.Metrics.Sinks = []factory.ModuleConfig{
		{Type: "influx", Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket}},
		{Type: "mqtt", Conf: map[string]any{"broker": broker, "topic": mqttTopic}},
	}
	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serveCtx, stop := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- svc.Serve(serveCtx, ln) }()

	api := client.New("http://" + ln.Addr().String())
	info, err := api.Status(ctx)
	require.NoError(t, err)
	assert.True(t, info.ModelLoaded)

	f := model.DefaultFeatures()
	f.Hour = 17
	f.IsRushHour = model.IsRushHour(17)
	pred, err := api.Predict(ctx, f)
	require.NoError(t, err)

	bad := model.DefaultFeatures()
	bad.Month = 13
	_, err = api.Predict(ctx, bad)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)

	select {
	case payload := <-msgs:
		var ev coremetrics.PredictionEvent
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, pred.RequestID, ev.RequestID)
		assert.Equal(t, pred.Volume, ev.Volume)
	case <-time.After(15 * time.Second):
		t.Fatal("no mqtt message received")
	}

	stop()
	require.NoError(t, <-served)

	points, err := influx.PredictionFields(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []int64{int64(pred.Volume)}, points["ok"])
	assert.Len(t, points["invalid"], 1)

	store, err := audit.NewSQLiteStore(cfg.Audit.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	recs, err := store.Query(ctx, audit.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, pred.RequestID, recs[0].RequestID)
	assert.Equal(t, coremetrics.OutcomeInvalid, recs[1].Outcome)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{
		Name: "Test_E2E_PredictionPipeline",
		Time: time.Since(start).Seconds(),
	}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
