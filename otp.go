package guidancedesk

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/campuskit/guidancedesk/docstore"
	"github.com/campuskit/guidancedesk/mail"
)

const (
	fieldEmail     = "email"
	fieldCode      = "code"
	fieldExpiresAt = "expiresAt"
)

// otpCodeSpan maps crypto/rand output onto the 6-digit range
// [100000, 999999].
var otpCodeSpan = big.NewInt(900000)

// SendOTP generates a 6-digit code for email, transmits it through the
// mail collaborator, and persists an OTP record expiring OTP.TTL from now.
//
// Delivery happens before persistence: a mail failure returns
// [ErrDelivery] with nothing stored, while a store failure after a
// successful send returns [ErrStore] and leaves an emailed but unrecorded
// code. Issuing a new code supersedes any previous records for the same
// email; only the most recent code verifies.
func (e *Engine) SendOTP(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		e.emitAudit(ctx, AuditOTPSend, email, "", false, ErrValidation)
		return fmt.Errorf("%w: email required", ErrValidation)
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("%w: code generation: %v", ErrStore, err)
	}
	expiresAt := e.now().Add(e.config.OTP.TTL).Unix()

	if err := e.mailer.Send(ctx, mail.OTPMessage(email, code, e.config.OTP.TTL)); err != nil {
		e.metrics.Inc(MetricOTPDeliveryFailure)
		e.emitAudit(ctx, AuditOTPSend, email, "", false, ErrDelivery)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	// Supersede older codes so at most the latest one is valid.
	if err := e.deleteOTPRecords(ctx, email); err != nil {
		e.emitAudit(ctx, AuditOTPSend, email, "", false, err)
		return err
	}

	_, err = e.store.Create(ctx, e.config.Store.OTPCollection, docstore.Fields{
		fieldEmail:     email,
		fieldCode:      code,
		fieldExpiresAt: expiresAt,
	})
	if err != nil {
		// The code is already in the recipient's inbox but unrecorded;
		// log the address so operators can reconcile.
		e.log.Error(ctx, "otp persisted after delivery failed", "email", email, "err", err)
		e.emitAudit(ctx, AuditOTPSend, email, "", false, ErrStore)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.metrics.Inc(MetricOTPSent)
	e.emitAudit(ctx, AuditOTPSend, email, "", true, nil)
	return nil
}

// VerifyOTP checks enteredCode against the stored record for email.
// It returns [ErrNotFound] when no record matches the code,
// [ErrExpired] when the matching record is past its expiry, and nil on
// success. The record is NOT deleted on success; callers decide when to
// invalidate and must call [Engine.DeleteOTP] immediately after a
// successful verify to close the replay window.
//
// The stored expiry is the sole authority; no client-reported elapsed time
// participates in the decision.
func (e *Engine) VerifyOTP(ctx context.Context, email, enteredCode string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" || enteredCode == "" {
		e.emitAudit(ctx, AuditOTPVerify, email, "", false, ErrValidation)
		return fmt.Errorf("%w: email and otp required", ErrValidation)
	}

	docs, err := e.store.List(ctx, e.config.Store.OTPCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq(fieldEmail, email)},
	})
	if err != nil {
		e.emitAudit(ctx, AuditOTPVerify, email, "", false, ErrStore)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	// Exact-match lookup, compared constant-time. Iterate every candidate
	// so timing does not reveal which record (if any) held the code.
	var matched *docstore.Document
	for i := range docs {
		stored := docs[i].Fields.String(fieldCode)
		if len(stored) == len(enteredCode) &&
			subtle.ConstantTimeCompare([]byte(stored), []byte(enteredCode)) == 1 {
			matched = &docs[i]
		}
	}
	if matched == nil {
		e.metrics.Inc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, AuditOTPVerify, email, "", false, ErrNotFound)
		return fmt.Errorf("%w: invalid otp", ErrNotFound)
	}

	if e.now().Unix() > matched.Fields.Int64(fieldExpiresAt) {
		e.metrics.Inc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, AuditOTPVerify, email, "", false, ErrExpired)
		return fmt.Errorf("%w: otp expired", ErrExpired)
	}

	e.metrics.Inc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, AuditOTPVerify, email, "", true, nil)
	return nil
}

// DeleteOTP removes every OTP record for email. It is idempotent: deleting
// when no records exist succeeds.
func (e *Engine) DeleteOTP(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email required", ErrValidation)
	}

	if err := e.deleteOTPRecords(ctx, email); err != nil {
		e.emitAudit(ctx, AuditOTPDelete, email, "", false, err)
		return err
	}

	e.metrics.Inc(MetricOTPDeleted)
	e.emitAudit(ctx, AuditOTPDelete, email, "", true, nil)
	return nil
}

func (e *Engine) deleteOTPRecords(ctx context.Context, email string) error {
	docs, err := e.store.List(ctx, e.config.Store.OTPCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq(fieldEmail, email)},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	for _, doc := range docs {
		if err := e.store.Delete(ctx, e.config.Store.OTPCollection, doc.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
	}
	return nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpCodeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
