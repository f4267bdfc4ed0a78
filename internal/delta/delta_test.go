package delta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown fox leaps over the lazy dog and runs away")

	d := Encode(base, target)
	got, err := Decode(base, d)
	require.NoError(t, err)
	require.Equal(t, target, got)
}

func TestEncodeDecodeEmptyTarget(t *testing.T) {
	base := []byte("some base content")
	got, err := Decode(base, Encode(base, nil))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEncodeDecodeEmptyBase(t *testing.T) {
	target := []byte("brand new content with nothing in common")
	got, err := Decode(nil, Encode(nil, target))
	require.NoError(t, err)
	require.Equal(t, target, got)
}

func TestEncodeDecodeIdentical(t *testing.T) {
	data := bytes.Repeat([]byte("identical-chunk-"), 500)
	d := Encode(data, data)
	got, err := Decode(data, d)
	require.NoError(t, err)
	require.Equal(t, data, got)
	// An identical base/target pair should compress to far less than the
	// raw length thanks to one long Copy instruction.
	require.Less(t, len(d), len(data)/4)
}

func TestDecodeRejectsWrongBase(t *testing.T) {
	base := []byte("original base bytes for delta encoding")
	target := []byte("original base bytes for delta decoding, modified")
	d := Encode(base, target)

	_, err := Decode([]byte("not the right base at all, different length!"), d)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	base := []byte("some reasonably sized base content for this test case")
	target := []byte("some reasonably sized target content for this test case, longer")
	d := Encode(base, target)

	_, err := Decode(base, d[:len(d)-2])
	require.Error(t, err)
}
