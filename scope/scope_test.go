package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackCurrentEmpty(t *testing.T) {
	s := NewStack[int]()
	v, ok := s.Current(context.Background())
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestStackDefault(t *testing.T) {
	s := NewStack[string]()
	s.SetDefault("root")
	v, ok := s.Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, "root", v)
}

func TestStackPushShadowsDefault(t *testing.T) {
	s := NewStack[string]()
	s.SetDefault("root")
	ctx, guard := s.Push(context.Background(), "child")
	defer guard.End()

	v, ok := s.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "child", v)

	// The parent context is unaffected by the push.
	parentV, _ := s.Current(context.Background())
	assert.Equal(t, "root", parentV)
}

func TestStackNestedPushIsLIFO(t *testing.T) {
	s := NewStack[int]()
	ctx, g1 := s.Push(context.Background(), 1)
	defer g1.End()
	ctx2, g2 := s.Push(ctx, 2)
	defer g2.End()

	v, _ := s.Current(ctx2)
	assert.Equal(t, 2, v)
	v, _ = s.Current(ctx)
	assert.Equal(t, 1, v)
}
