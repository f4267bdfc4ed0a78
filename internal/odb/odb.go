// Package odb implements the object database (C7): the component every
// other part of mediagit reads and writes objects through. It glues
// together oid (addressing), storagebackend (durable storage), codec
// (compression), cache (the hot decoded-object cache), similarity (delta
// base selection) and delta (the actual encoding) into one write path and
// one read path.
//
// Grounded on modules/zeta/backend/{odb,decode,encode,file_storer}.go:
// functional-options construction, a cache-then-backend read path, and a
// sharded-path write path that validates what it just wrote before
// considering it durable.
package odb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"

	"github.com/winnyboy5/mediagit-core-sub002/internal/cache"
	"github.com/winnyboy5/mediagit-core-sub002/internal/codec"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/similarity"
	"github.com/winnyboy5/mediagit-core-sub002/internal/storagebackend"
)

// deltaMarker prefixes the on-disk form of an object stored as a delta
// against a base. It can never collide with a object.Type tag because
// those start at 1 and stay well below 0xff.
const deltaMarker = 0xff

// smallObjectThreshold is the size below which compression is skipped:
// the codec framing overhead would net-lose on tiny payloads.
const smallObjectThreshold = 64

// Metrics is a point-in-time snapshot of ODB counters.
type Metrics struct {
	UniqueObjects   uint64
	TotalWrites     uint64
	DedupedWrites   uint64
	DeltaEncodings  uint64
	BytesWritten    int64
	BytesSaved      int64 // raw size minus stored size, summed over delta/compressed writes
	Cache           cache.Stats
	MetaCacheHits   uint64
	MetaCacheMisses uint64
}

// Option configures an ODB at construction time.
type Option func(*ODB)

// WithCache overrides the default decoded-object cache.
func WithCache(c *cache.Cache) Option {
	return func(o *ODB) { o.cache = c }
}

// WithSimilarityDetector overrides the default delta-base detector.
func WithSimilarityDetector(d *similarity.Detector) Option {
	return func(o *ODB) { o.detector = d }
}

// WithCompression sets the algorithm and level used for new writes.
// Existing objects compressed with a different algorithm remain readable:
// decode always auto-detects from the magic prefix.
func WithCompression(algo codec.Algorithm, level int) Option {
	return func(o *ODB) { o.compressAlgo, o.compressLevel = algo, level }
}

// WithLogger overrides the default logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *ODB) { o.log = l }
}

// WithDeltaThresholds records a minimum delta score and sets the minimum
// savings ratio required to keep a delta over a plain compressed write.
// Only the savings ratio takes effect: delta-base selection uses the
// per-kind minimum scores from similarity.ThresholdsFor, and minScore is
// not read.
func WithDeltaThresholds(minScore, minSavingsRatio float64) Option {
	return func(o *ODB) { o.minDeltaScore, o.minDeltaSavings = minScore, minSavingsRatio }
}

// ODB is the object database: a content-addressed, deduplicating,
// delta-and-compression-aware store layered over a storagebackend.Backend.
type ODB struct {
	backend storagebackend.Backend
	cache   *cache.Cache
	log     *logrus.Logger

	compressAlgo  codec.Algorithm
	compressLevel int

	minDeltaScore   float64
	minDeltaSavings float64

	detectorMu sync.Mutex
	detector   *similarity.Detector

	// metaCache memoizes decoded Tree/Commit values keyed by oid hex
	// string, a sampled-admission secondary cache distinct from the
	// strict-LRU byte cache above: decoded objects are cheap to recompute
	// from cached bytes, so an approximate cache is an acceptable, cheap
	// win here even though it would not be for the byte cache itself.
	metaCache *ristretto.Cache[string, any]

	metrics metricsCounters
}

type metricsCounters struct {
	uniqueObjects  atomic.Uint64
	totalWrites    atomic.Uint64
	dedupedWrites  atomic.Uint64
	deltaEncodings atomic.Uint64
	bytesWritten   atomic.Int64
	bytesSaved     atomic.Int64
}

// New constructs an ODB over backend, applying opts over sensible
// defaults: a 64MiB/4096-entry/8MiB-per-object strict-LRU cache, a
// 50-entry similarity detector, zstd level 3 compression, and a
// logrus.Logger writing to stderr.
func New(backend storagebackend.Backend, opts ...Option) (*ODB, error) {
	metaCache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 100_000,
		MaxCost:     32 << 20,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("odb: building metadata cache: %w", err)
	}

	o := &ODB{
		backend:         backend,
		cache:           cache.New(64<<20, 4096, 8<<20),
		detector:        similarity.New(similarity.DefaultCapacity),
		log:             logrus.StandardLogger(),
		compressAlgo:    codec.Zstd,
		compressLevel:   3,
		minDeltaScore:   0.3,
		minDeltaSavings: 0.1,
		metaCache:       metaCache,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Close releases the ODB's off-heap metadata cache resources.
func (o *ODB) Close() {
	o.metaCache.Close()
}

// Metrics returns a snapshot of the ODB's counters.
func (o *ODB) Metrics() Metrics {
	return Metrics{
		UniqueObjects:   o.metrics.uniqueObjects.Load(),
		TotalWrites:     o.metrics.totalWrites.Load(),
		DedupedWrites:   o.metrics.dedupedWrites.Load(),
		DeltaEncodings:  o.metrics.deltaEncodings.Load(),
		BytesWritten:    o.metrics.bytesWritten.Load(),
		BytesSaved:      o.metrics.bytesSaved.Load(),
		Cache:           o.cache.Stats(),
		MetaCacheHits:   o.metaCache.Metrics.Hits(),
		MetaCacheMisses: o.metaCache.Metrics.Misses(),
	}
}

// Exists reports whether id has been written.
func (o *ODB) Exists(ctx context.Context, id oid.OID) (bool, error) {
	if _, ok := o.cache.Get(id); ok {
		return true, nil
	}
	ok, err := o.backend.Exists(ctx, id.ShardedPath())
	if err != nil {
		return false, fmt.Errorf("odb: exists %s: %w", id, err)
	}
	return ok, nil
}

// DecodeTree fetches and decodes id as a Tree, consulting the metadata
// memoization cache first.
func (o *ODB) DecodeTree(ctx context.Context, id oid.OID) (*object.Tree, error) {
	if v, ok := o.metaCache.Get(metaKey(id)); ok {
		if tr, ok := v.(*object.Tree); ok {
			return tr, nil
		}
	}
	typ, raw, err := o.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if typ != object.TypeTree {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", ErrInvalidArgument, id, typ)
	}
	tr := &object.Tree{}
	if err := tr.Decode(byteReader(raw)); err != nil {
		return nil, fmt.Errorf("odb: decoding tree %s: %w", id, err)
	}
	o.metaCache.Set(metaKey(id), tr, int64(len(raw)))
	return tr, nil
}

// DecodeCommit fetches and decodes id as a Commit, consulting the
// metadata memoization cache first.
func (o *ODB) DecodeCommit(ctx context.Context, id oid.OID) (*object.Commit, error) {
	if v, ok := o.metaCache.Get(metaKey(id)); ok {
		if c, ok := v.(*object.Commit); ok {
			return c, nil
		}
	}
	typ, raw, err := o.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if typ != object.TypeCommit {
		return nil, fmt.Errorf("%w: %s is a %s, not a commit", ErrInvalidArgument, id, typ)
	}
	c := &object.Commit{}
	if err := c.Decode(byteReader(raw)); err != nil {
		return nil, fmt.Errorf("odb: decoding commit %s: %w", id, err)
	}
	o.metaCache.Set(metaKey(id), c, int64(len(raw)))
	return c, nil
}

func metaKey(id oid.OID) string { return id.String() }
