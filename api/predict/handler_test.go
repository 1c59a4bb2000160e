package predict

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/monitoring"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/core/predictor"
	"github.com/kilianp07/metrotraffic/infra/logger"
)

type captureMonitor struct {
	monitoring.NopMonitor
	errs []error
}

func (c *captureMonitor) CaptureException(err error, _ map[string]string) {
	c.errs = append(c.errs, err)
}

func newServer(p prediction.Pipeline) http.Handler {
	return NewRouter(http.NewServeMux(), predictor.New(p), []string{"*"}, logger.NopLogger{})
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestPredictSuccess(t *testing.T) {
	h := newServer(&prediction.MockPipeline{Value: 4962.7, Ver: "1.0.0"})
	rr := post(t, h, `{"holiday":"None","temp":288.28,"rain_1h":0,"snow_1h":0,"clouds_all":40,
		"weather_main":"Clouds","hour":9,"day_of_week":1,"month":10,"is_rush_hour":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"predicted_traffic_volume":4962,"model_version":"1.0.0"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestPredictAppliesDefaults(t *testing.T) {
	var seen model.Features
	p := &prediction.MockPipeline{Fn: func(f model.Features) float64 {
		seen = f
		return 100
	}}
	rr := post(t, newServer(p), `{"hour": 17, "unknown_field": true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	want := model.DefaultFeatures()
	want.Hour = 17
	assert.Equal(t, want, seen)
}

func TestPredictValidationErrors(t *testing.T) {
	p := &prediction.MockPipeline{Value: 1}
	rr := post(t, newServer(p), `{"temp": 400, "hour": 24}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeError(t, rr)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "temp", resp.Fields[0].Field)
	assert.Equal(t, "hour", resp.Fields[1].Field)
	assert.Equal(t, 0, p.Calls())
}

func TestPredictTypeError(t *testing.T) {
	rr := post(t, newServer(&prediction.MockPipeline{}), `{"hour": "nine"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeError(t, rr)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "hour", resp.Fields[0].Field)
}

func TestPredictNullFields(t *testing.T) {
	rr := post(t, newServer(&prediction.MockPipeline{}), `{"temp": null, "hour": null, "extra": null}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeError(t, rr)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "temp", resp.Fields[0].Field)
	assert.Equal(t, "hour", resp.Fields[1].Field)
	assert.Equal(t, "must not be null", resp.Fields[0].Message)
}

func TestPredictMalformedBody(t *testing.T) {
	h := newServer(&prediction.MockPipeline{})
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"hour": 9`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, ``).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"hour": 1} {"hour": 99}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"hour": 1} x`).Code)
}

func TestPredictOutOfRangeOutput(t *testing.T) {
	rr := post(t, newServer(&prediction.MockPipeline{Value: 1e19}), `{}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rr).Error)
}

func TestPredictInvalidInputFromPipeline(t *testing.T) {
	rr := post(t, newServer(&prediction.MockPipeline{Err: prediction.ErrInvalidInput}), `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Detail, "Invalid input data")
}

func TestPredictModelNotLoaded(t *testing.T) {
	mon := &captureMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(monitoring.NopMonitor{}) })

	rr := post(t, newServer(nil), `{}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Model not loaded. Please check API server logs.", decodeError(t, rr).Detail)
	assert.Len(t, mon.errs, 1)
}

func TestPredictPipelineFailure(t *testing.T) {
	rr := post(t, newServer(&prediction.MockPipeline{Err: errors.New("shape mismatch")}), `{}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeError(t, rr).Detail, "shape mismatch")
}

func TestPredictMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newServer(&prediction.MockPipeline{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestRootAndHealth(t *testing.T) {
	loaded := newServer(&prediction.MockPipeline{Ver: "1.0.0"})
	rr := httptest.NewRecorder()
	loaded.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var root map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &root))
	assert.Equal(t, "running", root["status"])
	assert.Equal(t, true, root["model_loaded"])
	assert.Equal(t, "1.0.0", root["version"])

	for _, c := range []struct {
		h      http.Handler
		status string
	}{{loaded, "healthy"}, {newServer(nil), "unhealthy"}} {
		rr := httptest.NewRecorder()
		c.h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var health map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
		assert.Equal(t, c.status, health["status"])
		_, err := time.Parse(time.RFC3339, health["timestamp"].(string))
		assert.NoError(t, err)
	}

	rr = httptest.NewRecorder()
	loaded.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	newServer(&prediction.MockPipeline{}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:8501", rr.Header().Get("Access-Control-Allow-Origin"))
}
