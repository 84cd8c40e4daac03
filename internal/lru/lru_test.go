package lru_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/macaronorm/macaron/internal/lru"
)

func TestLRUOrderAndEviction(t *testing.T) {
	var evicted []string
	lc := lru.NewLRU[string, string](3, func(key, _ string) { evicted = append(evicted, key) }, 0)
	lc.Add("k1", "v1")
	lc.Add("k2", "v2")
	lc.Add("k3", "v3")

	assert.Equal(t, []string{"k1", "k2", "k3"}, lc.Keys())
	assert.Equal(t, []string{"v1", "v2", "v3"}, lc.Values())

	// k1 becomes the newest, so k2 goes first
	v, ok := lc.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.True(t, lc.Add("k4", "v4"))
	assert.Equal(t, []string{"k3", "k1", "k4"}, lc.Keys())
	assert.Equal(t, []string{"k2"}, evicted)

	assert.False(t, lc.Add("k3", "v3'"))
	assert.Equal(t, []string{"k1", "k4", "k3"}, lc.Keys())
	assert.Equal(t, 3, lc.Len())
	assert.Equal(t, 3, lc.Cap())

	assert.True(t, lc.Remove("k4"))
	assert.False(t, lc.Remove("k4"))
	lc.Purge()
	assert.Equal(t, 0, lc.Len())
	assert.Equal(t, []string{"k2", "k4", "k1", "k3"}, evicted)
}

func TestLRUUnbounded(t *testing.T) {
	lc := lru.NewLRU[int, int](0, nil, 0)
	for i := 0; i < 100; i++ {
		assert.False(t, lc.Add(i, i))
	}
	assert.Equal(t, 100, lc.Len())
	_, ok := lc.Get(0)
	assert.True(t, ok)
}

func TestLRUExpiration(t *testing.T) {
	lc := lru.NewLRU[string, string](0, nil, 20*time.Millisecond)
	lc.Add("a", "1")
	lc.Add("b", "2")
	assert.Equal(t, 2, lc.Len())

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, lc.Keys())
	assert.Empty(t, lc.Values())
	_, ok := lc.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, lc.Len())
}
