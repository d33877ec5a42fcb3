package shared

import (
	"context"
	"strings"
)

// Identity is the viewer asserted by the upstream identity provider.
type Identity struct {
	UserID     string
	Credential string
}

// Valid reports whether the identity names a user.
func (i Identity) Valid() bool {
	return strings.TrimSpace(i.UserID) != ""
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || !id.Valid() {
		return Identity{}, false
	}
	return id, true
}
