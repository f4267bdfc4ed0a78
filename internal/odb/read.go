package odb

import (
	"context"
	"errors"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/codec"
	"github.com/winnyboy5/mediagit-core-sub002/internal/delta"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/storagebackend"
)

// Read fetches and fully reconstructs the object addressed by id: cache
// lookup, backend fetch, decompression, delta reconstruction if the
// object was stored as one, and a hash verification of the result against
// id before it is handed back or cached.
func (o *ODB) Read(ctx context.Context, id oid.OID) (object.Type, []byte, error) {
	if cached, ok := o.cache.Get(id); ok && len(cached) >= 1 {
		return object.Type(cached[0]), cached[1:], nil
	}

	stored, err := o.backend.Get(ctx, id.ShardedPath())
	if err != nil {
		if errors.Is(err, storagebackend.ErrNotFound) {
			return 0, nil, ErrNotFound
		}
		return 0, nil, fmt.Errorf("odb: reading %s: %w", id, err)
	}

	payload, err := codec.DecompressAuto(stored)
	if err != nil {
		return 0, nil, fmt.Errorf("odb: decompressing %s: %w", id, err)
	}
	if len(payload) == 0 {
		return 0, nil, fmt.Errorf("%w: %s has an empty payload", ErrCorruptObject, id)
	}

	var typ object.Type
	var raw []byte
	if payload[0] == deltaMarker {
		typ, raw, err = o.reconstructDelta(ctx, id, payload)
	} else {
		typ = object.Type(payload[0])
		raw = payload[1:]
	}
	if err != nil {
		return 0, nil, err
	}

	if oid.FromBytes(raw) != id {
		return 0, nil, fmt.Errorf("%w: %s", ErrCorruptObject, id)
	}

	o.cache.Put(id, append([]byte{byte(typ)}, raw...))
	return typ, raw, nil
}

func (o *ODB) reconstructDelta(ctx context.Context, id oid.OID, payload []byte) (object.Type, []byte, error) {
	if len(payload) < deltaOverhead {
		return 0, nil, fmt.Errorf("%w: %s has a truncated delta header", ErrCorruptObject, id)
	}
	typ := object.Type(payload[1])
	var baseOID oid.OID
	copy(baseOID[:], payload[2:2+oid.Size])
	deltaBytes := payload[2+oid.Size:]

	_, baseRaw, err := o.Read(ctx, baseOID)
	if err != nil {
		return 0, nil, fmt.Errorf("odb: reading delta base %s for %s: %w", baseOID, id, err)
	}

	raw, err := delta.Decode(baseRaw, deltaBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s: applying delta: %v", ErrCorruptObject, id, err)
	}
	return typ, raw, nil
}
