package aurauth

import (
	"errors"

	"github.com/aura-labs/aurauth/jwt"
	"github.com/aura-labs/aurauth/password"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single-use: Build succeeds
// at most once.
type Builder struct {
	config Config

	store   CredentialStore
	orders  OrderStore
	gateway PaymentGateway
	mailer  Mailer

	auditSink AuditSink
	logger    *zap.Logger

	passwordCost int
	built        bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentialStore injects the account store. Required.
func (b *Builder) WithCredentialStore(s CredentialStore) *Builder {
	b.store = s
	return b
}

// WithOrderStore injects the order store. Optional; order flows fail with
// ErrEngineNotReady without it.
func (b *Builder) WithOrderStore(s OrderStore) *Builder {
	b.orders = s
	return b
}

// WithPaymentGateway injects the external gateway client. Optional; only
// online payment flows need it.
func (b *Builder) WithPaymentGateway(g PaymentGateway) *Builder {
	b.gateway = g
	return b
}

// WithMailer injects the notification channel. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink injects the audit event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger injects a structured logger. Defaults to a no-op logger so
// the engine never writes to ambient global state.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithPasswordCost overrides the bcrypt cost (0 keeps the default).
func (b *Builder) WithPasswordCost(cost int) *Builder {
	b.passwordCost = cost
	return b
}

// Build validates the configuration and wiring and returns the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	ph, err := password.NewBcrypt(password.Config{Cost: b.passwordCost})
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		Secret:     cloneBytes(cfg.JWT.Secret),
		SessionTTL: cfg.JWT.SessionTTL,
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:       cfg,
		store:        b.store,
		orders:       b.orders,
		gateway:      b.gateway,
		mailer:       b.mailer,
		passwordHash: ph,
		jwtManager:   jm,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		logger:       logger,
	}

	b.built = true
	return engine, nil
}
