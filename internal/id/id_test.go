package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("returns a version 4 uuid", func(t *testing.T) {
		t.Parallel()
		parsed, err := uuid.Parse(New())
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	})

	t.Run("does not repeat", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			v := New()
			_, dup := seen[v]
			require.False(t, dup, "duplicate id %s", v)
			seen[v] = struct{}{}
		}
	})
}
