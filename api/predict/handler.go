// Package predict exposes the prediction service over HTTP.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/metrotraffic/core/logger"
	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/monitoring"
	"github.com/kilianp07/metrotraffic/core/prediction"
)

const maxBodyBytes = 1 << 16

// Service is the subset of predictor.Service used by the handlers.
type Service interface {
	Predict(ctx context.Context, f model.Features) (model.Prediction, error)
	ModelLoaded() bool
	Version() string
}

// Response is the body of a successful POST /predict.
type Response struct {
	Volume       int    `json:"predicted_traffic_volume"`
	ModelVersion string `json:"model_version"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Detail string             `json:"detail"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

// NewRootHandler returns the service description served on GET /.
func NewRootHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, ErrorResponse{Error: "not found", Detail: r.URL.Path})
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":      "Metro Interstate Traffic Volume Prediction API",
			"status":       "running",
			"model_loaded": svc.ModelLoaded(),
			"version":      svc.Version(),
			"endpoints": map[string]string{
				"predict": "POST /predict - Make traffic volume prediction",
				"health":  "GET /health - Service health check",
				"root":    "GET / - API status and information",
			},
		})
	})
}

// NewHealthHandler reports whether the pipeline is loaded. It always answers
// 200 so the process stays reachable for diagnosis.
func NewHealthHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		status := "unhealthy"
		if svc.ModelLoaded() {
			status = "healthy"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       status,
			"model_loaded": svc.ModelLoaded(),
			"timestamp":    time.Now().Format(time.RFC3339),
		})
	})
}

// NewPredictHandler serves POST /predict. Fields missing from the body take
// their default value and unknown fields are ignored.
func NewPredictHandler(svc Service, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		f, resp, status := decodeFeatures(r)
		if status != 0 {
			writeError(w, status, resp)
			return
		}
		pred, err := svc.Predict(r.Context(), f)
		if err != nil {
			status, resp := mapError(err)
			if status >= http.StatusInternalServerError {
				log.Errorf("prediction failed: %v", err)
				monitoring.CaptureRequest(err, r.Method, r.URL.Path, status)
			}
			writeError(w, status, resp)
			return
		}
		w.Header().Set("X-Request-ID", pred.RequestID)
		writeJSON(w, http.StatusOK, Response{Volume: pred.Volume, ModelVersion: pred.ModelVersion})
	})
}

func decodeFeatures(r *http.Request) (model.Features, ErrorResponse, int) {
	f := model.DefaultFeatures()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	var body json.RawMessage
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return f, ErrorResponse{Error: "Bad Request", Detail: "request body is required"}, http.StatusBadRequest
		}
		return f, malformed(err), http.StatusBadRequest
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return f, malformed(errors.New("unexpected data after JSON value")), http.StatusBadRequest
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil {
		var nulls []model.FieldError
		for _, name := range model.FieldNames {
			if v, ok := fields[name]; ok && string(v) == "null" {
				nulls = append(nulls, model.FieldError{Field: name, Message: "must not be null"})
			}
		}
		if len(nulls) > 0 {
			return f, validationResponse(nulls), http.StatusUnprocessableEntity
		}
	}

	err := json.Unmarshal(body, &f)
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
		return f, ErrorResponse{}, 0
	case errors.As(err, &typeErr):
		msg := fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)
		return f, validationResponse([]model.FieldError{{Field: typeErr.Field, Message: msg}}), http.StatusUnprocessableEntity
	default:
		return f, malformed(err), http.StatusBadRequest
	}
}

func malformed(err error) ErrorResponse {
	return ErrorResponse{Error: "Bad Request", Detail: "malformed JSON: " + err.Error()}
}

func validationResponse(fields []model.FieldError) ErrorResponse {
	details := make([]string, len(fields))
	for i, fe := range fields {
		details[i] = fe.Field + ": " + fe.Message
	}
	return ErrorResponse{
		Error:  "Validation Error",
		Detail: strings.Join(details, "; "),
		Fields: fields,
	}
}

func mapError(err error) (int, ErrorResponse) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, validationResponse(ve.Fields)
	case errors.Is(err, prediction.ErrModelNotLoaded):
		return http.StatusInternalServerError, ErrorResponse{
			Error:  "Internal Server Error",
			Detail: "Model not loaded. Please check API server logs.",
		}
	case errors.Is(err, prediction.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{
			Error:  "Bad Request",
			Detail: "Invalid input data: " + err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:  "Internal Server Error",
			Detail: "Prediction error: " + err.Error(),
		}
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed", Detail: "use " + allow})
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
