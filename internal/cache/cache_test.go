package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerCache_GetPut(t *testing.T) {
	c := NewLayerCache(0)
	k := Key{Phase: "kovel_strike", CRS: 4326}

	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Put(k, []byte(`{"type":"FeatureCollection"}`))
	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, `{"type":"FeatureCollection"}`, string(got))

	assert.Equal(t, 1, c.Hits.Value())
	assert.Equal(t, 1, c.Misses.Value())
}

func TestLayerCache_KeysDistinguishSelection(t *testing.T) {
	c := NewLayerCache(0)
	c.Put(Key{Phase: "", Selected: "a", CRS: 4326}, []byte("a"))
	c.Put(Key{Phase: "", Selected: "b", CRS: 4326}, []byte("b"))
	c.Put(Key{Phase: "", Selected: "a", CRS: 3857}, []byte("a3857"))

	assert.Equal(t, 3, c.Len())
	got, _ := c.Get(Key{Phase: "", Selected: "a", CRS: 3857})
	assert.Equal(t, "a3857", string(got))
}

func TestLayerCache_Limit(t *testing.T) {
	c := NewLayerCache(2)
	c.Put(Key{Phase: "1"}, nil)
	c.Put(Key{Phase: "2"}, nil)
	c.Put(Key{Phase: "2"}, []byte("x"))
	assert.Equal(t, 2, c.Len())

	c.Put(Key{Phase: "3"}, nil)
	assert.Equal(t, 1, c.Len())
}

func TestLayerCache_GetOrCompute(t *testing.T) {
	c := NewLayerCache(0)
	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	for i := 0; i < 3; i++ {
		b, hit, err := c.GetOrCompute(Key{Phase: "p"}, compute)
		require.NoError(t, err)
		assert.Equal(t, "v", string(b))
		assert.Equal(t, i > 0, hit)
	}
	assert.Equal(t, 1, calls)

	_, _, err := c.GetOrCompute(Key{Phase: "bad"}, func() ([]byte, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	_, ok := c.Get(Key{Phase: "bad"})
	assert.False(t, ok, "errors must not be cached")
}

func TestLayerCache_Concurrent(t *testing.T) {
	c := NewLayerCache(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.GetOrCompute(Key{Phase: "p"}, func() ([]byte, error) { return []byte("v"), nil })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Hits.Value()+c.Misses.Value())
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	c.Inc()
	c.Inc()
	assert.Equal(t, 2, c.Value())
}
