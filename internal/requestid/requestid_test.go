package requestid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "", FromContext(context.Background()))

	ctx := NewContext(context.Background(), "abc")
	assert.Equal(t, "abc", FromContext(ctx))
}

func TestEnsure(t *testing.T) {
	ctx := NewContext(context.Background(), "abc")
	assert.Equal(t, "abc", Ensure(ctx))

	id := Ensure(context.Background())
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, Ensure(context.Background()))
}
