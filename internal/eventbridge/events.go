package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/metrics"
)

// ProtocolVersion identifies the bridge contract version exposed via /health.
const ProtocolVersion = "1.0.0"

// VerifyRequest is posted by the public verification page when a visitor
// checks a cheque number.
type VerifyRequest struct {
	ChequeID   string `json:"cheque_id" validate:"required"`
	VerifiedBy string `json:"verified_by" validate:"max=128"`
}

// Normalize trims the request and rewrites the cheque number in canonical
// form. A number that cannot be parsed is left for Validate to reject.
func (r *VerifyRequest) Normalize(prefix string) {
	if r == nil {
		return
	}
	r.ChequeID = strings.TrimSpace(r.ChequeID)
	r.VerifiedBy = strings.TrimSpace(r.VerifiedBy)
	if code, err := cheque.NormalizeCode(prefix, r.ChequeID); err == nil {
		r.ChequeID = code
	}
	if r.VerifiedBy == "" {
		r.VerifiedBy = "anonymous"
	}
}

var requestValidator = validator.New()

// Validate enforces the request schema and the cheque number format.
func (r VerifyRequest) Validate(prefix string) error {
	if err := requestValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is invalid (%s)", jsonName(verrs[0].Field()), verrs[0].Tag())
		}
		return err
	}
	if _, err := cheque.ParseCode(prefix, r.ChequeID); err != nil {
		return fmt.Errorf("cheque_id: %w", err)
	}
	return nil
}

func jsonName(field string) string {
	switch field {
	case "ChequeID":
		return "cheque_id"
	case "VerifiedBy":
		return "verified_by"
	default:
		return strings.ToLower(field)
	}
}

// Verifier resolves a request into a logged verification.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (cheque.Verification, error)
}

// VerifierFunc adapts a function into a Verifier.
type VerifierFunc func(context.Context, VerifyRequest) (cheque.Verification, error)

// Verify executes f(ctx, req).
func (f VerifierFunc) Verify(ctx context.Context, req VerifyRequest) (cheque.Verification, error) {
	if f == nil {
		return cheque.Verification{}, errors.New("eventbridge: no verifier")
	}
	return f(ctx, req)
}

// Records is the part of the record store the bridge needs.
type Records interface {
	FindByChequeID(ctx context.Context, code string) ([]cheque.Record, error)
	RecordVerification(ctx context.Context, v cheque.Verification) (cheque.Verification, error)
}

// StoreVerifier looks the cheque up and logs the verification with the
// cheque's status, or not_found when nothing matches.
type StoreVerifier struct {
	Records Records
	Metrics *metrics.Metrics
}

// Verify implements Verifier.
func (v StoreVerifier) Verify(ctx context.Context, req VerifyRequest) (cheque.Verification, error) {
	if v.Records == nil {
		return cheque.Verification{}, errors.New("eventbridge: no record store")
	}
	found, err := v.Records.FindByChequeID(ctx, req.ChequeID)
	if err != nil {
		return cheque.Verification{}, err
	}
	entry := cheque.Verification{
		ChequeID:   req.ChequeID,
		VerifiedBy: req.VerifiedBy,
		Status:     cheque.StatusNotFound,
	}
	if len(found) > 0 {
		entry.Name = found[0].Name
		entry.Status = found[0].Status
	}
	logged, err := v.Records.RecordVerification(ctx, entry)
	if err != nil {
		return cheque.Verification{}, err
	}
	v.Metrics.Verification(string(logged.Status))
	return logged, nil
}

// Logger records bridge status information. It matches logbook.Logbook.Printf.
type Logger interface {
	Printf(format string, args ...any)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type verifyResponse struct {
	Status       string              `json:"status"`
	Verification cheque.Verification `json:"verification"`
	ServerTime   time.Time           `json:"server_time"`
}
