package obscontext

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDMintsOnce(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	_, err := ulid.Parse(cid)
	require.NoError(t, err)

	ctx2, again := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, again)
	assert.Equal(t, ctx, ctx2)
}

func TestActorRoundTrip(t *testing.T) {
	typ, id := ActorFromContext(context.Background())
	assert.Empty(t, typ)
	assert.Empty(t, id)

	ctx := WithActor(context.Background(), ActorTypeUser, " ops@acme.in ")
	typ, id = ActorFromContext(ctx)
	assert.Equal(t, ActorTypeUser, typ)
	assert.Equal(t, "ops@acme.in", id)
}

func TestBlankRequestIDIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  ")
	assert.Empty(t, RequestIDFromContext(ctx))
}
