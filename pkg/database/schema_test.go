package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSchemaSQL(t *testing.T) {
	t.Run("substitutes dimensions", func(t *testing.T) {
		sql, err := VectorSchemaSQL(768)
		require.NoError(t, err)
		assert.Contains(t, sql, "vector(768)")
		assert.NotContains(t, sql, "{{dimensions}}")
	})

	t.Run("rejects out of range", func(t *testing.T) {
		for _, dims := range []int{0, -1, 2001} {
			_, err := VectorSchemaSQL(dims)
			require.ErrorIs(t, err, ErrInvalidDimensions)
		}
	})
}

func TestSchemaSQL(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS feedback (")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS workflow_checkpoints")
	assert.Contains(t, schemaSQL, "idx_feedback_sentiment")
}
