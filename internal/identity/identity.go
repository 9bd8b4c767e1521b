// Package identity resolves the operator stamped on new cheque records.
package identity

import "strings"

// Unknown is recorded as createdBy when no operator is known.
const Unknown = "unknown"

// Provider exposes the current authenticated principal.
type Provider interface {
	CurrentUser() (string, bool)
}

// Static is a Provider with a fixed operator, typically from config.
type Static string

// CurrentUser returns the operator, or false when it is blank.
func (s Static) CurrentUser() (string, bool) {
	name := strings.TrimSpace(string(s))
	return name, name != ""
}

// Resolve returns the provider's user or Unknown. A nil provider is allowed.
func Resolve(p Provider) string {
	if p == nil {
		return Unknown
	}
	if name, ok := p.CurrentUser(); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return Unknown
}
