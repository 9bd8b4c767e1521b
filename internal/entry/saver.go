package entry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/identity"
)

var (
	ErrDuplicateLocked  = errors.New("cheque number already exists")
	ErrIncompleteFields = errors.New("name, phone and amount are required")
	ErrIncompleteCode   = errors.New("cheque number needs all 13 digits")
	ErrInvalidPhone     = errors.New("phone number is not valid")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrInvalidStatus    = errors.New("status must be valid, not valid or paid")
	ErrSaveInProgress   = errors.New("a save is already in progress")
)

const defaultWriteTimeout = 10 * time.Second

// Creator persists new records.
type Creator interface {
	Create(ctx context.Context, rec cheque.Record) (cheque.Record, error)
}

// Saver validates a submission and turns it into a stored record.
type Saver struct {
	store       Creator
	identity    identity.Provider
	phoneRegion string
	timeout     time.Duration
	validate    *validator.Validate
}

// SaverOption customizes a Saver.
type SaverOption func(*Saver)

// WithIdentity sets who createdBy is stamped with.
func WithIdentity(p identity.Provider) SaverOption {
	return func(s *Saver) { s.identity = p }
}

// WithPhoneRegion turns on phone number validation for the given region
// (for example "MM"). An empty region disables the check.
func WithPhoneRegion(region string) SaverOption {
	return func(s *Saver) { s.phoneRegion = strings.ToUpper(strings.TrimSpace(region)) }
}

// WithWriteTimeout bounds a single create call.
func WithWriteTimeout(d time.Duration) SaverOption {
	return func(s *Saver) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSaver returns a Saver writing to store.
func NewSaver(store Creator, opts ...SaverOption) *Saver {
	s := &Saver{
		store:    store,
		timeout:  defaultWriteTimeout,
		validate: validator.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Check applies the save preconditions in order: the duplicate lock, the
// required fields, a complete code, a positive amount and, when configured,
// the phone region. The complete-code and positive-amount rules are
// deliberate additions to the lock and required-field gate; a partial code
// or a non-numeric amount never reaches the store.
func (s *Saver) Check(form cheque.FormState, code cheque.CodeFields, locked bool) error {
	if locked {
		return ErrDuplicateLocked
	}
	form = trimForm(form)
	if err := s.checkRequired(form); err != nil {
		return err
	}
	if !code.Complete() {
		return ErrIncompleteCode
	}
	return s.checkValues(form)
}

// CheckEdit applies the field rules of a new record to an edit of an
// existing one.
func (s *Saver) CheckEdit(edit cheque.Edit) error {
	form := trimForm(cheque.FormState{Name: edit.Name, Phone: edit.Phone, Amount: edit.Amount, Status: edit.Status})
	if err := s.checkRequired(form); err != nil {
		return err
	}
	return s.checkValues(form)
}

func (s *Saver) checkRequired(form cheque.FormState) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Field() == "Status" {
			return ErrInvalidStatus
		}
	}
	return ErrIncompleteFields
}

func (s *Saver) checkValues(form cheque.FormState) error {
	if amount, err := decimal.NewFromString(form.Amount); err != nil || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if s.phoneRegion != "" {
		num, err := libphonenumber.Parse(form.Phone, s.phoneRegion)
		if err != nil || !libphonenumber.IsValidNumber(num) {
			return ErrInvalidPhone
		}
	}
	return nil
}

// Record builds the record to create. Id and timestamps are left for the
// store to assign.
func (s *Saver) Record(prefix string, form cheque.FormState, code cheque.CodeFields) cheque.Record {
	form = trimForm(form)
	return cheque.Record{
		ChequeID:  cheque.Format(prefix, code),
		Name:      form.Name,
		Phone:     form.Phone,
		Amount:    form.Amount,
		Status:    form.Status,
		CreatedBy: identity.Resolve(s.identity),
	}
}

// Create writes rec with the configured timeout.
func (s *Saver) Create(rec cheque.Record) (cheque.Record, error) {
	if s.store == nil {
		return cheque.Record{}, fmt.Errorf("entry: no record store configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.store.Create(ctx, rec)
}

func trimForm(form cheque.FormState) cheque.FormState {
	form.Name = strings.TrimSpace(form.Name)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Amount = strings.TrimSpace(form.Amount)
	return form
}
