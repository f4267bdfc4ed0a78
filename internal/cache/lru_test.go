package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

func TestGetMissAndHit(t *testing.T) {
	c := New(1<<20, 10, 1<<20)
	k := oid.FromBytes([]byte("a"))
	_, ok := c.Get(k)
	require.False(t, ok)

	c.Put(k, []byte("value"))
	v, ok := c.Get(k)
	require.True(t, ok)
	require.Equal(t, []byte("value"), v)

	stats := c.Stats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
}

func TestEvictsByCount(t *testing.T) {
	c := New(0, 2, 0)
	a := oid.FromBytes([]byte("a"))
	b := oid.FromBytes([]byte("b"))
	d := oid.FromBytes([]byte("d"))

	c.Put(a, []byte("1"))
	c.Put(b, []byte("2"))
	// touch a so b becomes least-recently-used
	_, _ = c.Get(a)
	c.Put(d, []byte("3"))

	_, ok := c.Get(b)
	require.False(t, ok, "b should have been evicted")
	_, ok = c.Get(a)
	require.True(t, ok)
	_, ok = c.Get(d)
	require.True(t, ok)
	require.EqualValues(t, 1, c.Stats().Evictions)
}

func TestEvictsByBytes(t *testing.T) {
	c := New(10, 0, 0)
	a := oid.FromBytes([]byte("a"))
	b := oid.FromBytes([]byte("b"))

	c.Put(a, make([]byte, 6))
	c.Put(b, make([]byte, 6))
	require.LessOrEqual(t, c.Stats().Bytes, int64(10))
	require.EqualValues(t, 1, c.Stats().Evictions)
}

func TestPerObjectCapRejectsLargeValues(t *testing.T) {
	c := New(0, 0, 4)
	k := oid.FromBytes([]byte("big"))
	c.Put(k, []byte("this is definitely more than four bytes"))
	_, ok := c.Get(k)
	require.False(t, ok, "oversized object must not be cached")
}

func TestRemoveDoesNotCountAsEviction(t *testing.T) {
	c := New(0, 0, 0)
	k := oid.FromBytes([]byte("x"))
	c.Put(k, []byte("v"))
	c.Remove(k)
	_, ok := c.Get(k)
	require.False(t, ok)
	require.EqualValues(t, 0, c.Stats().Evictions)
}

func TestClear(t *testing.T) {
	c := New(0, 0, 0)
	k := oid.FromBytes([]byte("x"))
	c.Put(k, []byte("v"))
	c.Clear()
	require.Equal(t, 0, c.Stats().Entries)
}
