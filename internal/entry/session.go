// Package entry ties the segmented code input, the duplicate checker and the
// save workflow into one form session driven by the TUI update loop.
package entry

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/codeinput"
	"github.com/kingrea/chequedesk/internal/dupcheck"
	"github.com/kingrea/chequedesk/internal/metrics"
	"github.com/kingrea/chequedesk/internal/notify"
)

// Field names an editable form field.
type Field int

const (
	FieldName Field = iota
	FieldPhone
	FieldAmount
)

// Save results recorded in metrics.
const (
	saveCreated  = "created"
	saveRejected = "rejected"
	saveFailed   = "failed"
)

// SaveFinishedMsg reports the outcome of a create call.
type SaveFinishedMsg struct {
	Record cheque.Record
	Err    error
}

// ErrorLogger matches logbook.Logbook.LogError.
type ErrorLogger interface {
	LogError(component, operation string, data any, err error)
}

// Session is one mounted entry form.
type Session struct {
	form    cheque.FormState
	code    *codeinput.Input
	dup     *dupcheck.Checker
	saver   *Saver
	notices notify.Notifier
	log     ErrorLogger
	metrics *metrics.Metrics
	saving  bool
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

func WithNotifier(n notify.Notifier) SessionOption {
	return func(s *Session) {
		if n != nil {
			s.notices = n
		}
	}
}

func WithLogger(l ErrorLogger) SessionOption {
	return func(s *Session) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// NewSession wires a form around the given input, checker and saver.
func NewSession(code *codeinput.Input, dup *dupcheck.Checker, saver *Saver, opts ...SessionOption) *Session {
	s := &Session{
		form:    cheque.DefaultForm(),
		code:    code,
		dup:     dup,
		saver:   saver,
		notices: notify.Discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Session) Form() cheque.FormState { return s.form }
func (s *Session) Code() *codeinput.Input { return s.code }
func (s *Session) Checker() *dupcheck.Checker { return s.dup }
func (s *Session) Saving() bool { return s.saving }
func (s *Session) Locked() bool { return s.dup.Locked() }
func (s *Session) Alert() bool { return s.dup.Alert() }

// FormattedCode is the live cheque number.
func (s *Session) FormattedCode() string { return s.code.FormattedCode() }

// EnterDigit writes a digit into a slot addressed by group and index.
func (s *Session) EnterDigit(group, index int, char string) (codeinput.Result, tea.Cmd) {
	return s.afterCodeEdit(s.code.EnterDigit(group, index, char))
}

// HandleBackspace clears a slot addressed by group and index.
func (s *Session) HandleBackspace(group, index int) (codeinput.Result, tea.Cmd) {
	return s.afterCodeEdit(s.code.HandleBackspace(group, index))
}

// Type writes a digit at the cursor.
func (s *Session) Type(char string) (codeinput.Result, tea.Cmd) {
	return s.afterCodeEdit(s.code.Type(char))
}

// Backspace clears at the cursor.
func (s *Session) Backspace() (codeinput.Result, tea.Cmd) {
	return s.afterCodeEdit(s.code.Backspace())
}

func (s *Session) afterCodeEdit(res codeinput.Result) (codeinput.Result, tea.Cmd) {
	if res.Entered {
		s.dup.Unlock()
	}
	if !res.Changed {
		return res, nil
	}
	return res, s.dup.Observe(s.code.FormattedCode())
}

// SetField updates a text field. Fields are read-only while the code is
// locked as a duplicate or a save is running.
func (s *Session) SetField(field Field, value string) error {
	if err := s.editable(); err != nil {
		return err
	}
	switch field {
	case FieldName:
		s.form.Name = value
	case FieldPhone:
		s.form.Phone = value
	case FieldAmount:
		s.form.Amount = value
	}
	return nil
}

// SetStatus picks the record status.
func (s *Session) SetStatus(status cheque.Status) error {
	if err := s.editable(); err != nil {
		return err
	}
	if !status.IsRecordStatus() {
		return ErrInvalidStatus
	}
	s.form.Status = status
	return nil
}

func (s *Session) editable() error {
	if s.saving {
		return ErrSaveInProgress
	}
	if s.dup.Locked() {
		return ErrDuplicateLocked
	}
	return nil
}

// Save validates the form and, when it passes, returns the command that
// creates the record. Rejections are reported to the notifier and returned.
func (s *Session) Save() (tea.Cmd, error) {
	if s.saving {
		return nil, ErrSaveInProgress
	}
	if err := s.saver.Check(s.form, s.code.Fields(), s.dup.Locked()); err != nil {
		s.metrics.Save(saveRejected)
		s.reject(err)
		return nil, err
	}
	rec := s.saver.Record(s.code.Prefix(), s.form, s.code.Fields())
	s.saving = true
	saver := s.saver
	return func() tea.Msg {
		created, err := saver.Create(rec)
		if err != nil {
			return SaveFinishedMsg{Record: rec, Err: err}
		}
		return SaveFinishedMsg{Record: created}
	}, nil
}

func (s *Session) reject(err error) {
	switch {
	case errors.Is(err, ErrDuplicateLocked):
		s.notices.Warn("Cheque %s already exists!", s.code.FormattedCode())
	case errors.Is(err, ErrIncompleteFields):
		s.notices.Info("Please fill in name, phone and amount")
	case errors.Is(err, ErrIncompleteCode):
		s.notices.Info("Please enter all 13 digits of the cheque number")
	case errors.Is(err, ErrInvalidAmount):
		s.notices.Info("Amount must be a positive number")
	case errors.Is(err, ErrInvalidPhone):
		s.notices.Info("Phone number %q is not valid", s.form.Phone)
	default:
		s.notices.Info("Cannot save: %v", err)
	}
}

// Clear resets the form and the code and drops the lock. It is refused while
// a save is running.
func (s *Session) Clear() error {
	if s.saving {
		return ErrSaveInProgress
	}
	s.reset()
	return nil
}

// Close disarms any pending lookup, for example when the form is left.
func (s *Session) Close() {
	s.dup.Cancel()
}

func (s *Session) reset() {
	s.form = cheque.DefaultForm()
	s.code.Reset()
	s.dup.Reset()
}

// Update handles save completion and forwards everything else to the
// duplicate checker.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case SaveFinishedMsg:
		s.finishSave(msg)
		return nil
	default:
		return s.dup.Update(msg)
	}
}

func (s *Session) finishSave(msg SaveFinishedMsg) {
	s.saving = false
	if msg.Err != nil {
		s.metrics.Save(saveFailed)
		if s.log != nil {
			s.log.LogError("entry", "create", map[string]any{"chequeId": msg.Record.ChequeID}, msg.Err)
		}
		s.notices.Error("Failed to save cheque %s", msg.Record.ChequeID)
		return
	}
	s.metrics.Save(saveCreated)
	s.reset()
	s.notices.Success("Cheque %s saved", msg.Record.ChequeID)
}
