// Package predictions exposes the prediction audit log.
package predictions

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/metrotraffic/core/audit"
	"github.com/kilianp07/metrotraffic/core/metrics"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// NewLogHandler returns an HTTP handler exposing prediction records via GET /api/predictions.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store audit.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(auth), []byte("Bearer "+token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []audit.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseQuery(r *http.Request) (audit.Query, error) {
	v := r.URL.Query()
	q := audit.Query{Limit: defaultLimit}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, queryError("start must be RFC3339")
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, queryError("end must be RFC3339")
		}
		q.End = t
	}
	if s := v.Get("outcome"); s != "" {
		switch o := metrics.Outcome(s); o {
		case metrics.OutcomeOK, metrics.OutcomeInvalid, metrics.OutcomeError:
			q.Outcome = o
		default:
			return q, queryError("outcome must be ok, invalid or error")
		}
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return q, queryError("limit must be a positive integer")
		}
		q.Limit = min(n, maxLimit)
	}
	return q, nil
}
