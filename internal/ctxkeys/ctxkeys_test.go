package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithSubject(ctx, "user-42")

	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	ip, ok := ClientIP(ctx)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", ip)

	sub, ok := Subject(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-42", sub)
}

func TestMissingAndEmpty(t *testing.T) {
	_, ok := RequestID(context.Background())
	assert.False(t, ok)

	_, ok = Subject(WithSubject(context.Background(), ""))
	assert.False(t, ok)
}
