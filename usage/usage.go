// Package usage records pseudonymized usage events. Client identifiers
// never reach logs or storage in the clear; they are replaced by a
// keyed one-way pseudonym so per-client activity can be counted without
// holding the identity itself.
package usage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// unknownClient stands in for requests that carry no client identifier.
const unknownClient = "unknown"

// Tracker pseudonymizes client IDs and emits usage events to the log
// and, when a store is attached, to persistent storage.
type Tracker struct {
	secret []byte
	logger *zap.SugaredLogger
	store  *Store
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithStore attaches a persistent event store.
func WithStore(store *Store) TrackerOption {
	return func(t *Tracker) {
		t.store = store
	}
}

// WithLogger sets the logger events are written to.
func WithLogger(logger *zap.SugaredLogger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a usage tracker keyed with secret. The same secret
// must be used across restarts for pseudonyms to stay stable.
func NewTracker(secret string, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		secret: []byte(secret),
		logger: zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Pseudonym returns a stable one-way pseudonym for a client ID. An
// empty ID maps to the pseudonym of "unknown".
func (t *Tracker) Pseudonym(clientID string) string {
	if clientID == "" {
		clientID = unknownClient
	}

	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(clientID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Record logs one usage event. keysAndValues carry event details in
// zap's sugared form and must not contain identifying data.
func (t *Tracker) Record(ctx context.Context, event, clientID string, keysAndValues ...any) {
	pseudonym := t.Pseudonym(clientID)

	fields := append([]any{"event", event, "pseudonym_id", pseudonym}, keysAndValues...)
	t.logger.Infow("app_event", fields...)

	if t.store == nil {
		return
	}
	if err := t.store.SaveEvent(ctx, event, pseudonym, encodeDetail(keysAndValues)); err != nil {
		t.logger.Warnw("saving usage event", "event", event, "error", err)
	}
}

// encodeDetail renders sugared key/value pairs as a JSON object. A
// trailing key without a value and non-string keys are rendered with
// fmt so malformed call sites still leave a trace.
func encodeDetail(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	detail := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		detail[key] = keysAndValues[i+1]
	}
	if len(keysAndValues)%2 != 0 {
		detail["_dangling"] = fmt.Sprint(keysAndValues[len(keysAndValues)-1])
	}

	encoded, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(encoded)
}
