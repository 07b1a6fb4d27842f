package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMaskedEmail(t *testing.T) {
	assert.Equal(t, "a***@x.com", MaskedEmail("alice@x.com").String)
	assert.Equal(t, "***", MaskedEmail("@x.com").String)
	assert.Equal(t, "***", MaskedEmail("nomail").String)
}

func TestFromFallsBackToGlobal(t *testing.T) {
	nop := zap.NewNop()
	restore := Replace(nop)
	defer restore()

	assert.Same(t, nop, From(context.Background()))

	scoped := nop.With(UserID("u1"))
	ctx := ToContext(context.Background(), scoped)
	assert.Same(t, scoped, From(ctx))
}
