package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/giftledger/internal/infrastructure/metrics"
	"github.com/iho/giftledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	// inFlightMarker is what the store holds while the first request runs.
	inFlightMarker = "processing"
)

// IdempotencyMiddleware replays the stored response when a POST or PATCH is
// repeated with the same Idempotency-Key, so a double-submitted form adds a
// gift only once. Requests without the header pass through untouched.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// uses usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, m *metrics.Metrics) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, metrics: m, ttl: ttl}
}

type storedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	Status      int    `json:"status"`
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		// scope keys to the endpoint so a reused key cannot replay another route
		key := r.Method + " " + r.URL.Path + " " + header

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			writeMiddlewareError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			if string(cached) == inFlightMarker {
				writeMiddlewareError(w, http.StatusConflict, "request with this idempotency key is still in progress")
				return
			}

			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err == nil {
				if m.metrics != nil {
					m.metrics.IdempotentReplays.Inc()
				}
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set(IdempotencyReplayHeader, "true")
				w.WriteHeader(stored.Status)
				w.Write(stored.Body)
				return
			}
		}

		// Store writes outlive the request so a disconnecting client
		// cannot leave its key stuck in flight.
		storeCtx := context.WithoutCancel(r.Context())

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		completed := false
		defer func() {
			// a panicking handler must not keep the key in flight
			if !completed {
				m.release(storeCtx, key, header)
			}
		}()

		next.ServeHTTP(recorder, r)
		completed = true

		// Failed requests release the key so the client can retry with it.
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			m.release(storeCtx, key, header)
			return
		}

		data, err := json.Marshal(storedResponse{
			Status:      recorder.statusCode,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			m.release(storeCtx, key, header)
			return
		}
		if err := m.store.Update(storeCtx, key, data, m.ttl); err != nil {
			log.Warn().Err(err).Str("key", header).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) release(ctx context.Context, key, header string) {
	if err := m.store.Release(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", header).Msg("failed to release idempotency key")
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeMiddlewareError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
