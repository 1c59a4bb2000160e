package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/metrotraffic/auth"
	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/infra/logger"
)

// RemoteConfig configures a pipeline served by an external model server.
type RemoteConfig struct {
	URL            string    `json:"url"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Version        string    `json:"version"`
	Auth           auth.Conf `json:"auth"`
}

// Remote posts feature vectors to a model server.
type Remote struct {
	url     string
	version string
	client  *http.Client
	creds   *auth.ClientCred
	log     logger.Logger
}

type remoteReply struct {
	Prediction *float64 `json:"prediction"`
	Volume     *float64 `json:"predicted_traffic_volume"`
	Version    string   `json:"model_version"`
	Detail     string   `json:"detail"`
}

// NewRemote creates a Remote pipeline.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote pipeline: url is required")
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.Version == "" {
		cfg.Version = "remote"
	}
	r := &Remote{
		url:     cfg.URL,
		version: cfg.Version,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     logger.New("remote-pipeline"),
	}
	if cfg.Auth.Enabled() {
		r.creds = auth.NewClientCred(cfg.Auth)
	}
	return r, nil
}

// Predict sends f as JSON and reads the scalar estimate from the reply.
func (r *Remote) Predict(ctx context.Context, f model.Features) (float64, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, err
	}
	resp, err := r.do(ctx, body, false)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode == http.StatusUnauthorized && r.creds != nil {
		_ = resp.Body.Close()
		if resp, err = r.do(ctx, body, true); err != nil {
			return 0, err
		}
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read model server reply: %w", err)
	}
	var reply remoteReply
	decodeErr := json.Unmarshal(data, &reply)
	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return 0, fmt.Errorf("%w: %s", prediction.ErrInvalidInput, reply.Detail)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, fmt.Errorf("model server returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	case decodeErr != nil:
		return 0, fmt.Errorf("decode model server reply: %w", decodeErr)
	}
	switch {
	case reply.Prediction != nil:
		return *reply.Prediction, nil
	case reply.Volume != nil:
		return *reply.Volume, nil
	}
	return 0, fmt.Errorf("model server reply has no prediction")
}

func (r *Remote) do(ctx context.Context, body []byte, refresh bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.creds != nil {
		if refresh {
			r.log.Debugf("refreshing model server token")
			if _, err := r.creds.ForceRefresh(ctx); err != nil {
				return nil, err
			}
		}
		if err := r.creds.SetAuthHeader(req); err != nil {
			return nil, err
		}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model server: %w", err)
	}
	return resp, nil
}

func (r *Remote) Version() string { return r.version }

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
