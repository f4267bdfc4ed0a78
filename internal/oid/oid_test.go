package oid

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytesWellKnownVector(t *testing.T) {
	// S1: SHA-256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
	got := FromBytes([]byte("hello"))
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got.String())
}

func TestFromReaderMatchesFromBytes(t *testing.T) {
	data := bytes.Repeat([]byte("media"), 20000)
	want := FromBytes(data)
	got, err := FromReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestHasherIncremental(t *testing.T) {
	data := []byte("the quick brown fox")
	h := NewHasher()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	require.Equal(t, FromBytes(data), h.Sum())
}

func TestParseRoundTrip(t *testing.T) {
	o := FromBytes([]byte("roundtrip"))
	s := o.String()
	got, err := Parse(s)
	require.NoError(t, err)
	require.Equal(t, o, got)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-hex")
	require.ErrorIs(t, err, ErrInvalidHex)

	_, err = Parse(strings.Repeat("zz", Size))
	require.ErrorIs(t, err, ErrInvalidHex)

	_, err = Parse("abcd")
	require.ErrorIs(t, err, ErrInvalidHex)
}

func TestShardedPath(t *testing.T) {
	o := FromBytes([]byte("x"))
	full := o.String()
	require.Equal(t, full[:2]+"/"+full[2:], o.ShardedPath())
}

func TestZeroIsZero(t *testing.T) {
	var o OID
	require.True(t, o.IsZero())
	require.False(t, FromBytes([]byte("a")).IsZero())
}

func TestSliceSortsByteLex(t *testing.T) {
	a := FromBytes([]byte("a"))
	b := FromBytes([]byte("b"))
	c := FromBytes([]byte("c"))
	s := Slice{c, a, b}
	sort.Sort(s)
	require.True(t, bytes.Compare(s[0][:], s[1][:]) < 0)
	require.True(t, bytes.Compare(s[1][:], s[2][:]) < 0)
}
