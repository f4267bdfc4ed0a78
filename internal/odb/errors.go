package odb

import "errors"

var (
	// ErrNotFound is returned by Read when oid has no stored object.
	ErrNotFound = errors.New("odb: object not found")
	// ErrCorruptObject is returned by Read when the decoded payload does
	// not hash to the requested OID.
	ErrCorruptObject = errors.New("odb: corrupt object")
	// ErrInvalidArgument is returned for malformed on-disk framing (e.g.
	// an unrecognised type tag).
	ErrInvalidArgument = errors.New("odb: invalid argument")
)
