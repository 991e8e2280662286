package guidancedesk

import (
	"context"
	"time"

	"github.com/campuskit/guidancedesk/docstore"
	"github.com/campuskit/guidancedesk/internal/logging"
	"github.com/campuskit/guidancedesk/mail"
	"github.com/campuskit/guidancedesk/password"
	"github.com/campuskit/guidancedesk/token"
)

// Engine is the authentication and verification core. Construct it through
// [New]; all fields are wired once at Build and treated as immutable.
type Engine struct {
	config  Config
	store   docstore.Store
	mailer  mail.Sender
	hasher  *password.Hasher
	tokens  *token.Manager
	audit   AuditSink
	metrics *Metrics
	log     logging.Logger

	// now is replaceable in tests; defaults to time.Now.
	now func() time.Time
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Metrics returns the engine's counter set.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

func (e *Engine) ready() error {
	if e.store == nil || e.mailer == nil || e.hasher == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) emitAudit(ctx context.Context, eventType, email, sessionID string, success bool, opErr error) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		Email:     email,
		SessionID: sessionID,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}
