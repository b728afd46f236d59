package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	t.Run("seeds are deduplicated and empty ids dropped", func(t *testing.T) {
		c := NewCache("b.near", "a.near", "b.near", "")
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, []string{"a.near", "b.near"}, c.List())
	})

	t.Run("add reports novelty", func(t *testing.T) {
		c := NewCache()
		assert.True(t, c.Add("a.near"))
		assert.False(t, c.Add("a.near"))
		assert.False(t, c.Add(""))
		assert.True(t, c.Contains("a.near"))
		assert.False(t, c.Contains("A.near"))
	})

	t.Run("merge counts new ids", func(t *testing.T) {
		c := NewCache("a.near")
		assert.Equal(t, 1, c.Merge([]string{"a.near", "b.near", "b.near"}))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("list is a copy", func(t *testing.T) {
		c := NewCache("a.near")
		ids := c.List()
		ids[0] = "mutated"
		assert.True(t, c.Contains("a.near"))
	})
}
