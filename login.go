package guidancedesk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campuskit/guidancedesk/docstore"
)

const (
	fieldFullName     = "fullName"
	fieldPasswordHash = "passwordHash"
	fieldSetupPending = "setupPending"
	fieldCounselorID  = "counselorId"
	fieldCreatedAt    = "createdAt"
)

// RegisterCounselor creates a counselor credential in first-time-setup
// state. The account cannot log in until SetupPassword completes. Email
// uniqueness is enforced here by lookup; the store remains the arbiter
// under races.
func (e *Engine) RegisterCounselor(ctx context.Context, email, fullName string) (*Counselor, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}

	if _, err := e.findCounselor(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: counselor already registered", ErrInvalidState)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	doc, err := e.store.Create(ctx, e.config.Store.CounselorCollection, docstore.Fields{
		fieldEmail:        email,
		fieldFullName:     fullName,
		fieldPasswordHash: "",
		fieldSetupPending: true,
		fieldCreatedAt:    e.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.emitAudit(ctx, AuditRegister, email, "", true, nil)
	c := counselorFromDoc(doc)
	return &c, nil
}

// Login authenticates a counselor and mints a session.
//
// Accounts still flagged for first-time setup get a
// [LoginResult]{RedirectToSetup: true} and no session. Otherwise the
// password is verified against the stored argon2id hash (constant-time),
// a session record with expiry now+Session.TTL is created, and a signed
// token embedding the session ID is returned for the client cookie.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	// Only the email is validated up front: setup-pending accounts are
	// redirected before any password comparison happens.
	if email == "" {
		e.emitAudit(ctx, AuditLogin, email, "", false, ErrValidation)
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}

	counselor, err := e.findCounselor(ctx, email)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, email, "", false, err)
		return nil, err
	}

	if counselor.SetupPending {
		e.metrics.Inc(MetricLoginSetupRedirect)
		e.emitAudit(ctx, AuditLoginSetupRedirect, email, "", true, nil)
		return &LoginResult{RedirectToSetup: true}, nil
	}

	ok, err := e.hasher.Verify(pass, counselor.PasswordHash)
	if err != nil || !ok {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, email, "", false, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	expiresAt := e.now().Add(e.config.Session.TTL).Unix()
	doc, err := e.store.Create(ctx, e.config.Store.SessionCollection, docstore.Fields{
		fieldCounselorID: counselor.ID,
		fieldExpiresAt:   expiresAt,
	})
	if err != nil {
		e.emitAudit(ctx, AuditLogin, email, "", false, ErrStore)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	signed, err := e.tokens.Sign(doc.ID)
	if err != nil {
		// The orphaned session record is unusable without a token; remove
		// it rather than leaving it to the sweeper.
		_ = e.store.Delete(ctx, e.config.Store.SessionCollection, doc.ID)
		e.emitAudit(ctx, AuditLogin, email, doc.ID, false, err)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLogin, email, doc.ID, true, nil)
	return &LoginResult{Token: signed}, nil
}

// SetupPassword completes first-time password setup. It requires the
// account to be in setup-pending state and fails with [ErrInvalidState]
// otherwise. The new password is argon2id-hashed and the pending flag
// cleared.
func (e *Engine) SetupPassword(ctx context.Context, email, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email required", ErrValidation)
	}
	if len(newPassword) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}

	counselor, err := e.findCounselor(ctx, email)
	if err != nil {
		return err
	}
	if !counselor.SetupPending {
		e.emitAudit(ctx, AuditPasswordSetup, email, "", false, ErrInvalidState)
		return fmt.Errorf("%w: password already set", ErrInvalidState)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	_, err = e.store.Update(ctx, e.config.Store.CounselorCollection, counselor.ID, docstore.Fields{
		fieldPasswordHash: hash,
		fieldSetupPending: false,
	})
	if err != nil {
		e.emitAudit(ctx, AuditPasswordSetup, email, "", false, ErrStore)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.metrics.Inc(MetricPasswordSetup)
	e.emitAudit(ctx, AuditPasswordSetup, email, "", true, nil)
	return nil
}

// Logout deletes the session referenced by the presented token. An
// already-deleted session or an unparseable token is not an error; logout
// is idempotent from the client's perspective.
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	if err := e.ready(); err != nil {
		return err
	}

	sessionID, err := e.tokens.Parse(tokenStr)
	if err != nil {
		return nil
	}

	if err := e.store.Delete(ctx, e.config.Store.SessionCollection, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, "", sessionID, true, nil)
	return nil
}

// ValidateSession verifies a presented token end to end: signature, a
// non-empty embedded session ID, an existing session record, and an
// unexpired stored expiry. It returns the session on success.
func (e *Engine) ValidateSession(ctx context.Context, tokenStr string) (*SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	sessionID, err := e.tokens.Parse(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	doc, err := e.store.Get(ctx, e.config.Store.SessionCollection, sessionID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: session", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	info := SessionInfo{
		SessionID:   sessionID,
		CounselorID: doc.Fields.String(fieldCounselorID),
		ExpiresAt:   doc.Fields.Int64(fieldExpiresAt),
	}
	if info.Expired(e.now()) {
		return nil, fmt.Errorf("%w: session", ErrExpired)
	}

	return &info, nil
}

// ListCounselors returns all counselor credentials, newest first.
func (e *Engine) ListCounselors(ctx context.Context) ([]Counselor, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	docs, err := e.store.List(ctx, e.config.Store.CounselorCollection, docstore.Query{
		OrderBy: fieldCreatedAt,
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	out := make([]Counselor, 0, len(docs))
	for _, doc := range docs {
		out = append(out, counselorFromDoc(doc))
	}
	return out, nil
}

func (e *Engine) findCounselor(ctx context.Context, email string) (Counselor, error) {
	docs, err := e.store.List(ctx, e.config.Store.CounselorCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq(fieldEmail, email)},
		Limit:   1,
	})
	if err != nil {
		return Counselor{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if len(docs) == 0 {
		return Counselor{}, fmt.Errorf("%w: counselor", ErrNotFound)
	}
	return counselorFromDoc(docs[0]), nil
}

func counselorFromDoc(doc docstore.Document) Counselor {
	return Counselor{
		ID:           doc.ID,
		Email:        doc.Fields.String(fieldEmail),
		FullName:     doc.Fields.String(fieldFullName),
		PasswordHash: doc.Fields.String(fieldPasswordHash),
		SetupPending: doc.Fields.Bool(fieldSetupPending),
		CreatedAt:    doc.Fields.Int64(fieldCreatedAt),
	}
}
