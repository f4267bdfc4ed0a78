package odb

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/codec"
	"github.com/winnyboy5/mediagit-core-sub002/internal/delta"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/similarity"
)

// nonDeltaOverhead and deltaOverhead are the framing overheads of the two
// forms an object's decompressed payload can take, distinguished by
// whether the first byte is deltaMarker:
//
//	[typeTag][raw bytes...]                             — stored verbatim
//	[deltaMarker][typeTag][32-byte base OID][delta bytes] — stored as a delta
const nonDeltaOverhead = 1
const deltaOverhead = 1 + 1 + oid.Size

// Write stores raw under its content OID (the SHA-256 of raw itself,
// independent of typ or filename), deduplicating, delta-encoding against a
// similar recent object when that saves space, and compressing the result
// unless the smart compression policy decides against it. filename may be
// empty; it only affects delta-base selection (the type-aware thresholds).
func (o *ODB) Write(ctx context.Context, typ object.Type, raw []byte, filename string) (oid.OID, error) {
	id := oid.FromBytes(raw)
	o.metrics.totalWrites.Add(1)

	exists, err := o.Exists(ctx, id)
	if err != nil {
		return oid.OID{}, err
	}
	if exists {
		o.metrics.dedupedWrites.Add(1)
		return id, nil
	}

	fp := similarity.Fingerprint{
		OID:           id,
		Type:          byte(typ),
		Size:          int64(len(raw)),
		SampledHashes: similarity.SampleHashes(raw, 0, 0),
		Filename:      filename,
	}
	kind := similarity.KindForFilename(filename)
	thresholds := similarity.ThresholdsFor(kind)

	payload, isDelta := o.tryDeltaEncode(ctx, typ, raw, fp, thresholds)
	if payload == nil {
		payload = append([]byte{byte(typ)}, raw...)
	}

	stored := payload
	if shouldCompress(raw) {
		c := codec.ForAlgorithm(o.compressAlgo)
		if c != nil {
			compressed, err := c.Compress(o.compressLevel, payload)
			if err == nil && len(compressed) < len(stored) {
				stored = compressed
			}
		}
	}

	if err := o.backend.Put(ctx, id.ShardedPath(), stored); err != nil {
		return oid.OID{}, fmt.Errorf("odb: writing %s: %w", id, err)
	}

	o.detectorMu.Lock()
	o.detector.Push(fp)
	if isDelta {
		o.detector.MarkDelta(id)
	}
	o.detectorMu.Unlock()

	o.cache.Put(id, append([]byte{byte(typ)}, raw...))

	o.metrics.uniqueObjects.Add(1)
	o.metrics.bytesWritten.Add(int64(len(stored)))
	if saved := int64(len(raw)) - int64(len(stored)); saved > 0 {
		o.metrics.bytesSaved.Add(saved)
	}
	if isDelta {
		o.metrics.deltaEncodings.Add(1)
	}
	return id, nil
}

// tryDeltaEncode looks for a similar recent object and, if encoding
// against it saves enough space, returns the framed delta payload.
// Returns (nil, false) when no base qualifies or the savings are too
// small to bother.
func (o *ODB) tryDeltaEncode(ctx context.Context, typ object.Type, raw []byte, fp similarity.Fingerprint, th similarity.Thresholds) ([]byte, bool) {
	o.detectorMu.Lock()
	cand, ok := o.detector.FindSimilar(fp, th.MinScore, th.SizeRatioThresh)
	o.detectorMu.Unlock()
	if !ok {
		return nil, false
	}

	baseType, baseRaw, err := o.Read(ctx, cand.Fingerprint.OID)
	if err != nil || baseType != typ {
		return nil, false
	}

	deltaBytes := delta.Encode(baseRaw, raw)
	framedLen := deltaOverhead + len(deltaBytes)
	if framedLen >= len(raw) {
		return nil, false
	}
	savings := 1 - float64(framedLen)/float64(len(raw))
	if savings < o.minDeltaSavings {
		return nil, false
	}

	out := make([]byte, 0, framedLen)
	out = append(out, deltaMarker, byte(typ))
	out = append(out, cand.Fingerprint.OID[:]...)
	out = append(out, deltaBytes...)
	return out, true
}
