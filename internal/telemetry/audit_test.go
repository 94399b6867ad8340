package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"schoolconnect/internal/mocks"
	"schoolconnect/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.schoolconnect", "schoolconnect", "test", zap.NewNop().Sugar())

	publisher.On("Publish", mock.Anything, "audit_log.schoolconnect", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "schoolconnect" &&
			envelope.Environment == "test" &&
			envelope.Username == "alice" &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "login"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "login", "req-1", "alice")

	publisher.AssertExpectations(t)
}

func TestEmitOnNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "req-1", "alice")
	})
}
