// Package codeinput implements the segmented cheque-number input: thirteen
// single-digit slots with a focus cursor that advances on entry and retreats
// on backspace. It does not touch any UI toolkit; each operation reports the
// slot the caller should focus next.
package codeinput

import (
	"github.com/kingrea/chequedesk/internal/cheque"
)

// NoFocus means the operation does not ask for a focus change.
const NoFocus = -1

// Result describes the outcome of a single input operation.
type Result struct {
	// Changed is true when a slot value was modified.
	Changed bool
	// Entered is true when a digit was written. Callers use it to lift any
	// duplicate lock so the user can keep typing.
	Entered bool
	// Focus is the flat index the UI should focus next, or NoFocus.
	Focus int
}

// Input owns the digit slots and the focus cursor for one entry session.
type Input struct {
	prefix string
	fields cheque.CodeFields
	focus  int
}

// New returns an empty input rendering codes with the given prefix.
func New(prefix string) *Input {
	if prefix == "" {
		prefix = cheque.DefaultPrefix
	}
	return &Input{prefix: prefix}
}

// Prefix returns the code prefix.
func (in *Input) Prefix() string {
	return in.prefix
}

// Fields returns a copy of the digit slots.
func (in *Input) Fields() cheque.CodeFields {
	return in.fields
}

// Focus returns the current cursor position (0..12).
func (in *Input) Focus() int {
	return in.focus
}

// SetFocus moves the cursor, clamped to the slot range.
func (in *Input) SetFocus(flat int) {
	in.focus = clamp(flat)
}

// FormattedCode projects the slots onto the cheque number string.
func (in *Input) FormattedCode() string {
	return cheque.Format(in.prefix, in.fields)
}

// EmptyCode is the formatted value when no digit is present.
func (in *Input) EmptyCode() string {
	return cheque.EmptyCode(in.prefix)
}

// Complete reports whether all slots hold a digit.
func (in *Input) Complete() bool {
	return in.fields.Complete()
}

// EnterDigit writes the last decimal digit found in char into the addressed
// slot and advances focus. Input without a digit is a no-op.
func (in *Input) EnterDigit(group, index int, char string) Result {
	flat, ok := cheque.FlatIndex(group, index)
	if !ok {
		return Result{Focus: NoFocus}
	}
	digit, ok := lastDigit(char)
	if !ok {
		return Result{Focus: NoFocus}
	}
	in.fields.Set(flat, digit)
	res := Result{Changed: true, Entered: true, Focus: NoFocus}
	in.focus = flat
	if next := flat + 1; next < cheque.SlotCount {
		in.focus = next
		res.Focus = next
	}
	return res
}

// HandleBackspace clears the addressed slot in place when it holds a digit.
// On an empty slot it retreats one position, crossing group boundaries, and
// clears the digit there.
func (in *Input) HandleBackspace(group, index int) Result {
	flat, ok := cheque.FlatIndex(group, index)
	if !ok {
		return Result{Focus: NoFocus}
	}
	if _, filled := in.fields.Digit(flat); filled {
		in.fields.Clear(flat)
		in.focus = flat
		return Result{Changed: true, Focus: NoFocus}
	}
	prev := flat - 1
	if prev < 0 {
		return Result{Focus: NoFocus}
	}
	_, hadDigit := in.fields.Digit(prev)
	in.fields.Clear(prev)
	in.focus = prev
	return Result{Changed: hadDigit, Focus: prev}
}

// Type enters a digit at the cursor.
func (in *Input) Type(char string) Result {
	g, i, _ := cheque.Locate(in.focus)
	return in.EnterDigit(g, i, char)
}

// Backspace applies HandleBackspace at the cursor.
func (in *Input) Backspace() Result {
	g, i, _ := cheque.Locate(in.focus)
	return in.HandleBackspace(g, i)
}

// MoveLeft moves the cursor one slot back.
func (in *Input) MoveLeft() Result {
	if in.focus == 0 {
		return Result{Focus: NoFocus}
	}
	in.focus--
	return Result{Focus: in.focus}
}

// MoveRight moves the cursor one slot forward.
func (in *Input) MoveRight() Result {
	if in.focus >= cheque.SlotCount-1 {
		return Result{Focus: NoFocus}
	}
	in.focus++
	return Result{Focus: in.focus}
}

// Load replaces the slots with a parsed formatted code.
func (in *Input) Load(code string) error {
	fields, err := cheque.ParseCode(in.prefix, code)
	if err != nil {
		return err
	}
	in.fields = fields
	in.focus = cheque.SlotCount - 1
	return nil
}

// Reset clears every slot and returns the cursor to the first one.
func (in *Input) Reset() {
	in.fields.Reset()
	in.focus = 0
}

func lastDigit(s string) (byte, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] >= '0' && s[i] <= '9' {
			return s[i], true
		}
	}
	return 0, false
}

func clamp(flat int) int {
	if flat < 0 {
		return 0
	}
	if flat >= cheque.SlotCount {
		return cheque.SlotCount - 1
	}
	return flat
}
