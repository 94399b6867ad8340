package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher is the broker interface the emitter depends on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter pushes audit envelopes to the event broker.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	log         *zap.SugaredLogger
}

// AuditEnvelope is the wire shape of one audit event.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	Username      string       `json:"username,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload is the free-form part of the envelope.
type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// NewAuditEmitter constructs an AuditEmitter.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, log *zap.SugaredLogger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log,
	}
}

// Emit publishes one audit event. A nil emitter or publisher is safe.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID, username string) {
	if e == nil || e.publisher == nil {
		return
	}

	e.log.Debugw("audit emit", "level", level, "request_id", requestID, "username", username, "text", text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Username:      username,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.log.Warnw("audit publish failed", "error", err)
	}
}
