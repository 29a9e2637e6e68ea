package util

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { _ = InitLogger("test") })

	require.NoError(t, InitLogger("production"))
	assert.NotNil(t, GetLogger())

	require.NoError(t, InitLogger("test"))
	assert.NotNil(t, GetLogger())
	SyncLogger()
}

func TestStartSpanWithoutTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "Test.Span")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}
