// internal/cheque/code.go
//
// Cheque numbers are 13 digits split into three groups (3, 6 and 4 digits)
// and rendered behind a bank prefix, e.g. BSF123-456789-0123. The digits live
// in CodeFields; the string form is always derived from them.

package cheque

import (
	"fmt"
	"strings"
)

const (
	// DefaultPrefix is prepended to every formatted cheque number.
	DefaultPrefix = "BSF"

	// SlotCount is the number of digit slots across all groups.
	SlotCount = 13

	// GroupCount is the number of digit groups.
	GroupCount = 3

	separator = "-"
)

// GroupLengths holds the fixed size of each digit group, in order.
var GroupLengths = [GroupCount]int{3, 6, 4}

var groupOffsets = [GroupCount]int{0, 3, 9}

// FlatIndex converts a (group, index) address into the 0..12 flat index.
func FlatIndex(group, index int) (int, bool) {
	if group < 0 || group >= GroupCount {
		return 0, false
	}
	if index < 0 || index >= GroupLengths[group] {
		return 0, false
	}
	return groupOffsets[group] + index, true
}

// Locate walks the group lengths to turn a flat index back into a
// (group, index) address.
func Locate(flat int) (group, index int, ok bool) {
	if flat < 0 || flat >= SlotCount {
		return 0, 0, false
	}
	running := flat
	for g, length := range GroupLengths {
		if running < length {
			return g, running, true
		}
		running -= length
	}
	return 0, 0, false
}

// CodeFields stores the 13 digit slots. A zero byte marks an empty slot.
type CodeFields struct {
	slots [SlotCount]byte
}

// Digit returns the digit at the flat index, or false when the slot is empty
// or out of range.
func (f CodeFields) Digit(flat int) (byte, bool) {
	if flat < 0 || flat >= SlotCount || f.slots[flat] == 0 {
		return 0, false
	}
	return f.slots[flat], true
}

// Set stores a single decimal digit. Anything else is ignored.
func (f *CodeFields) Set(flat int, digit byte) bool {
	if flat < 0 || flat >= SlotCount || digit < '0' || digit > '9' {
		return false
	}
	f.slots[flat] = digit
	return true
}

// Clear empties the slot at the flat index.
func (f *CodeFields) Clear(flat int) {
	if flat < 0 || flat >= SlotCount {
		return
	}
	f.slots[flat] = 0
}

// Reset empties every slot.
func (f *CodeFields) Reset() {
	f.slots = [SlotCount]byte{}
}

// Group renders one group's digits, skipping empty slots.
func (f CodeFields) Group(group int) string {
	if group < 0 || group >= GroupCount {
		return ""
	}
	var b strings.Builder
	start := groupOffsets[group]
	for i := start; i < start+GroupLengths[group]; i++ {
		if f.slots[i] != 0 {
			b.WriteByte(f.slots[i])
		}
	}
	return b.String()
}

// Filled reports how many slots hold a digit.
func (f CodeFields) Filled() int {
	n := 0
	for _, d := range f.slots {
		if d != 0 {
			n++
		}
	}
	return n
}

// Complete reports whether all 13 digits are present.
func (f CodeFields) Complete() bool {
	return f.Filled() == SlotCount
}

// Empty reports whether no digit has been entered.
func (f CodeFields) Empty() bool {
	return f.Filled() == 0
}

// Format projects CodeFields onto PREFIX + g1 + "-" + g2 + "-" + g3.
func Format(prefix string, f CodeFields) string {
	return prefix + f.Group(0) + separator + f.Group(1) + separator + f.Group(2)
}

// EmptyCode is the formatted value of an all-empty CodeFields.
func EmptyCode(prefix string) string {
	return prefix + separator + separator
}

// ParseCode reads a complete formatted cheque number back into CodeFields.
// The prefix match is case-insensitive and surrounding whitespace is ignored.
func ParseCode(prefix, code string) (CodeFields, error) {
	var fields CodeFields
	trimmed := strings.TrimSpace(code)
	if len(trimmed) < len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return fields, fmt.Errorf("cheque code %q: missing prefix %s", code, prefix)
	}
	parts := strings.Split(trimmed[len(prefix):], separator)
	if len(parts) != GroupCount {
		return fields, fmt.Errorf("cheque code %q: expected %d groups", code, GroupCount)
	}
	for g, part := range parts {
		if len(part) != GroupLengths[g] {
			return fields, fmt.Errorf("cheque code %q: group %d must have %d digits", code, g+1, GroupLengths[g])
		}
		for i := 0; i < len(part); i++ {
			flat, _ := FlatIndex(g, i)
			if !fields.Set(flat, part[i]) {
				return fields, fmt.Errorf("cheque code %q: %q is not a digit", code, part[i])
			}
		}
	}
	return fields, nil
}

// NormalizeCode canonicalises a formatted cheque number (upper-case prefix,
// trimmed). Malformed input is returned with an error.
func NormalizeCode(prefix, code string) (string, error) {
	fields, err := ParseCode(prefix, code)
	if err != nil {
		return "", err
	}
	return Format(prefix, fields), nil
}
