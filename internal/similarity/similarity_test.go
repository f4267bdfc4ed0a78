package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

func TestSampleHashesEmpty(t *testing.T) {
	require.Empty(t, SampleHashes(nil, 10, 1024))
}

func TestSampleHashesDeterministic(t *testing.T) {
	data := []byte("some reasonably long content used for window sampling tests")
	h1 := SampleHashes(data, 4, 8)
	h2 := SampleHashes(data, 4, 8)
	require.Equal(t, h1, h2)
}

func TestKindForFilename(t *testing.T) {
	require.Equal(t, KindImage, KindForFilename("photo.PNG"))
	require.Equal(t, KindVideo, KindForFilename("clip.mp4"))
	require.Equal(t, KindNestedContainer, KindForFilename("poster.ai"))
	require.Equal(t, KindDefault, KindForFilename("noext"))
}

func TestDetectorPushBoundedCapacity(t *testing.T) {
	d := New(2)
	a := oid.FromBytes([]byte("a"))
	b := oid.FromBytes([]byte("b"))
	c := oid.FromBytes([]byte("c"))
	d.Push(Fingerprint{OID: a})
	d.Push(Fingerprint{OID: b})
	d.Push(Fingerprint{OID: c})
	require.Equal(t, 2, d.Len())
}

func TestFindSimilarPrefersCloserMatch(t *testing.T) {
	d := New(10)
	target := Fingerprint{
		Type:          1,
		Size:          1000,
		SampledHashes: []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	d.Push(Fingerprint{
		OID: oid.FromBytes([]byte("close")), Type: 1, Size: 950,
		SampledHashes: []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 99},
	})
	d.Push(Fingerprint{
		OID: oid.FromBytes([]byte("far")), Type: 1, Size: 900,
		SampledHashes: []uint64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
	})

	cand, ok := d.FindSimilar(target, 0.3, 0.5)
	require.True(t, ok)
	require.Equal(t, oid.FromBytes([]byte("close")), cand.Fingerprint.OID)
}

func TestFindSimilarRejectsDeltaAndTypeMismatch(t *testing.T) {
	d := New(10)
	target := Fingerprint{Type: 1, Size: 100, SampledHashes: []uint64{1, 2, 3}}
	d.Push(Fingerprint{OID: oid.FromBytes([]byte("delta")), Type: 1, Size: 100, IsDelta: true, SampledHashes: []uint64{1, 2, 3}})
	d.Push(Fingerprint{OID: oid.FromBytes([]byte("othertype")), Type: 2, Size: 100, SampledHashes: []uint64{1, 2, 3}})

	_, ok := d.FindSimilar(target, 0.1, 0.5)
	require.False(t, ok)
}

func TestMarkDeltaExcludesFromFutureMatches(t *testing.T) {
	d := New(10)
	id := oid.FromBytes([]byte("x"))
	d.Push(Fingerprint{OID: id, Type: 1, Size: 100, SampledHashes: []uint64{1, 2, 3}})
	d.MarkDelta(id)

	target := Fingerprint{Type: 1, Size: 100, SampledHashes: []uint64{1, 2, 3}}
	_, ok := d.FindSimilar(target, 0.1, 0.5)
	require.False(t, ok)
}
