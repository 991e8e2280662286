package guidancedesk

import (
	"errors"
	"time"

	"github.com/campuskit/guidancedesk/docstore"
	"github.com/campuskit/guidancedesk/internal/logging"
	"github.com/campuskit/guidancedesk/mail"
	"github.com/campuskit/guidancedesk/password"
	"github.com/campuskit/guidancedesk/token"
)

// Builder assembles an [Engine]. Collaborators are injected explicitly so
// no package-level client singletons exist and tests can substitute fakes.
type Builder struct {
	config Config
	store  docstore.Store
	mailer mail.Sender
	audit  AuditSink
	log    logging.Logger
	now    func() time.Time

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore injects the document-store collaborator.
func (b *Builder) WithStore(store docstore.Store) *Builder {
	b.store = store
	return b
}

// WithMailer injects the mail collaborator.
func (b *Builder) WithMailer(sender mail.Sender) *Builder {
	b.mailer = sender
	return b
}

// WithAuditSink injects an audit sink. Without one, audit events are
// dropped.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.audit = sink
	return b
}

// WithLogger injects the structured logger.
func (b *Builder) WithLogger(log logging.Logger) *Builder {
	b.log = log
	return b
}

// WithClock overrides the engine clock. Tests use this to exercise expiry
// paths deterministically.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, wires the hasher and token manager,
// and returns the engine. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("document store is required")
	}
	if b.mailer == nil {
		return nil, errors.New("mail sender is required")
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
		MinLength:   b.config.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager([]byte(b.config.SigningSecret), b.config.Session.TTL, b.config.Session.Issuer)
	if err != nil {
		return nil, err
	}

	if b.audit == nil {
		b.audit = NoOpSink{}
	}
	if b.log == nil {
		b.log = logging.Nop()
	}
	if b.now == nil {
		b.now = time.Now
	}

	b.built = true
	return &Engine{
		config:  b.config,
		store:   b.store,
		mailer:  b.mailer,
		hasher:  hasher,
		tokens:  tokens,
		audit:   b.audit,
		metrics: NewMetrics(),
		log:     b.log,
		now:     b.now,
	}, nil
}
