package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), Identity{UserID: "ana", Credential: "Bearer x"})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "ana", id.UserID)
	assert.Equal(t, "Bearer x", id.Credential)
}

func TestIdentityMissingOrBlank(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IdentityFromContext(ContextWithIdentity(context.Background(), Identity{UserID: "  "}))
	assert.False(t, ok)
}
