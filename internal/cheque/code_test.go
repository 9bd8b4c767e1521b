package cheque

import "testing"

func TestFlatIndexAndLocateRoundTrip(t *testing.T) {
	for flat := 0; flat < SlotCount; flat++ {
		g, i, ok := Locate(flat)
		if !ok {
			t.Fatalf("Locate(%d) not ok", flat)
		}
		back, ok := FlatIndex(g, i)
		if !ok || back != flat {
			t.Fatalf("FlatIndex(%d,%d) = %d,%v want %d", g, i, back, ok, flat)
		}
	}
	cases := []struct {
		flat, group, index int
	}{
		{0, 0, 0}, {2, 0, 2}, {3, 1, 0}, {8, 1, 5}, {9, 2, 0}, {12, 2, 3},
	}
	for _, tc := range cases {
		g, i, _ := Locate(tc.flat)
		if g != tc.group || i != tc.index {
			t.Fatalf("Locate(%d) = (%d,%d), want (%d,%d)", tc.flat, g, i, tc.group, tc.index)
		}
	}
	if _, _, ok := Locate(13); ok {
		t.Fatalf("Locate(13) should be out of range")
	}
	if _, ok := FlatIndex(0, 3); ok {
		t.Fatalf("FlatIndex(0,3) should be out of range")
	}
}

func TestFormatRendersEmptySegments(t *testing.T) {
	var f CodeFields
	if got := Format(DefaultPrefix, f); got != "BSF--" {
		t.Fatalf("empty format = %q", got)
	}
	if got := EmptyCode(DefaultPrefix); got != "BSF--" {
		t.Fatalf("EmptyCode = %q", got)
	}
	f.Set(0, '1')
	f.Set(4, '5')
	f.Set(12, '9')
	if got := Format(DefaultPrefix, f); got != "BSF1-5-9" {
		t.Fatalf("sparse format = %q", got)
	}
	if f.Set(1, 'x') {
		t.Fatalf("non-digit must be rejected")
	}
}

func TestParseCode(t *testing.T) {
	fields, err := ParseCode(DefaultPrefix, " bsf123-456789-0123 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !fields.Complete() {
		t.Fatalf("expected complete fields")
	}
	if got := Format(DefaultPrefix, fields); got != "BSF123-456789-0123" {
		t.Fatalf("format = %q", got)
	}
	for _, bad := range []string{"", "BSF--", "XYZ123-456789-0123", "BSF12-3456789-0123", "BSF123-45678a-0123", "BSF123-456789"} {
		if _, err := ParseCode(DefaultPrefix, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestStatusHelpers(t *testing.T) {
	if StatusValid.Next() != StatusNotValid || StatusPaid.Next() != StatusValid {
		t.Fatalf("Next cycle broken")
	}
	if StatusValid.Prev() != StatusPaid {
		t.Fatalf("Prev cycle broken")
	}
	if s, ok := ParseStatus("Not Valid"); !ok || s != StatusNotValid {
		t.Fatalf("ParseStatus label = %q,%v", s, ok)
	}
	if StatusNotFound.IsRecordStatus() {
		t.Fatalf("not_found is not a record status")
	}
	if StatusNotFound.Label() != "Not Found" {
		t.Fatalf("label = %q", StatusNotFound.Label())
	}
	if got := Status("bogus").Label(); got != "-" {
		t.Fatalf("unknown status label = %q", got)
	}
}
