package codeinput

import (
	"regexp"
	"testing"

	"github.com/kingrea/chequedesk/internal/cheque"
)

var wellFormed = regexp.MustCompile(`^BSF\d{0,3}-\d{0,6}-\d{0,4}$`)

func typeAll(in *Input, digits string) {
	for _, r := range digits {
		in.Type(string(r))
	}
}

func TestEnterDigitsFillsCodeAndStopsAtLastSlot(t *testing.T) {
	in := New("BSF")
	typeAll(in, "123456789012")
	if in.Focus() != 12 {
		t.Fatalf("focus after 12 digits = %d, want 12", in.Focus())
	}
	res := in.Type("3")
	if !res.Entered || res.Focus != NoFocus {
		t.Fatalf("last digit result = %+v", res)
	}
	if got := in.FormattedCode(); got != "BSF123-456789-0123" {
		t.Fatalf("formatted = %q", got)
	}
	if in.Focus() != 12 {
		t.Fatalf("focus after 13th digit = %d, want 12", in.Focus())
	}
	if !in.Complete() {
		t.Fatalf("expected complete code")
	}
}

func TestEnterDigitAdvancesFocusFromEverySlot(t *testing.T) {
	for flat := 0; flat < cheque.SlotCount; flat++ {
		in := New("BSF")
		g, i, _ := cheque.Locate(flat)
		res := in.EnterDigit(g, i, "7")
		want := flat + 1
		if flat == cheque.SlotCount-1 {
			want = flat
			if res.Focus != NoFocus {
				t.Fatalf("flat 12 should not request focus, got %d", res.Focus)
			}
		} else if res.Focus != want {
			t.Fatalf("flat %d focus target = %d, want %d", flat, res.Focus, want)
		}
		if in.Focus() != want {
			t.Fatalf("flat %d cursor = %d, want %d", flat, in.Focus(), want)
		}
		if !wellFormed.MatchString(in.FormattedCode()) {
			t.Fatalf("malformed code %q", in.FormattedCode())
		}
	}
}

func TestEnterDigitDiscardsNonDigits(t *testing.T) {
	in := New("BSF")
	res := in.EnterDigit(0, 0, "a")
	if res.Changed || res.Entered || res.Focus != NoFocus {
		t.Fatalf("non-digit should be a no-op, got %+v", res)
	}
	if in.FormattedCode() != "BSF--" {
		t.Fatalf("code changed: %q", in.FormattedCode())
	}
	in.EnterDigit(0, 0, "x4")
	if in.FormattedCode() != "BSF4--" {
		t.Fatalf("expected last digit kept, got %q", in.FormattedCode())
	}
	if res := in.EnterDigit(5, 0, "1"); res.Changed {
		t.Fatalf("out of range group should be ignored")
	}
}

func TestBackspaceClearsFilledSlotInPlace(t *testing.T) {
	in := New("BSF")
	in.EnterDigit(1, 2, "8")
	res := in.HandleBackspace(1, 2)
	if !res.Changed || res.Focus != NoFocus {
		t.Fatalf("result = %+v", res)
	}
	if in.Focus() != 5 {
		t.Fatalf("focus moved to %d", in.Focus())
	}
	if in.FormattedCode() != "BSF--" {
		t.Fatalf("code = %q", in.FormattedCode())
	}
}

func TestBackspaceOnEmptySlotCrossesGroupBoundary(t *testing.T) {
	in := New("BSF")
	typeAll(in, "123")
	if in.Focus() != 3 {
		t.Fatalf("focus = %d, want 3", in.Focus())
	}
	res := in.HandleBackspace(1, 0)
	if res.Focus != 2 {
		t.Fatalf("focus target = %d, want 2", res.Focus)
	}
	if got := in.FormattedCode(); got != "BSF12--" {
		t.Fatalf("code = %q, want BSF12--", got)
	}

	in.Reset()
	typeAll(in, "123456789")
	res = in.HandleBackspace(2, 0)
	if res.Focus != 8 || in.FormattedCode() != "BSF123-45678-" {
		t.Fatalf("group 3 boundary: focus %d code %q", res.Focus, in.FormattedCode())
	}
}

func TestBackspaceAtFirstSlotIsNoop(t *testing.T) {
	in := New("BSF")
	res := in.HandleBackspace(0, 0)
	if res.Changed || res.Focus != NoFocus || in.Focus() != 0 {
		t.Fatalf("expected no-op, got %+v focus %d", res, in.Focus())
	}
}

func TestCursorHelpersClamp(t *testing.T) {
	in := New("")
	if in.Prefix() != cheque.DefaultPrefix {
		t.Fatalf("default prefix = %q", in.Prefix())
	}
	in.MoveLeft()
	if in.Focus() != 0 {
		t.Fatalf("focus below zero")
	}
	in.SetFocus(40)
	if in.Focus() != 12 {
		t.Fatalf("focus = %d, want 12", in.Focus())
	}
	if res := in.MoveRight(); res.Focus != NoFocus {
		t.Fatalf("move right past end should not request focus")
	}
	in.SetFocus(-3)
	if in.Focus() != 0 {
		t.Fatalf("focus = %d, want 0", in.Focus())
	}
}

func TestLoadAndReset(t *testing.T) {
	in := New("BSF")
	if err := in.Load("BSF111-222222-3333"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if in.FormattedCode() != "BSF111-222222-3333" {
		t.Fatalf("code = %q", in.FormattedCode())
	}
	in.Reset()
	if in.FormattedCode() != in.EmptyCode() || in.Focus() != 0 {
		t.Fatalf("reset left %q focus %d", in.FormattedCode(), in.Focus())
	}
}
