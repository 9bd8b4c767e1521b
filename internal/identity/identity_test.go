package identity

import "testing"

func TestResolveFallsBackToUnknown(t *testing.T) {
	cases := []struct {
		name string
		p    Provider
		want string
	}{
		{"nil provider", nil, Unknown},
		{"blank operator", Static("  "), Unknown},
		{"configured operator", Static(" admin@bsf.test "), "admin@bsf.test"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.p); got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}
