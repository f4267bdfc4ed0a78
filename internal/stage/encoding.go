package stage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

var magic = [4]byte{'M', 'G', 'S', 'T'}

// Version is the only on-disk stage format version this package writes.
const Version uint32 = 1

// ErrBadMagic is returned when a stream does not start with the stage
// magic bytes.
var ErrBadMagic = errors.New("stage: bad magic")

// Encode writes s's entries in its flat binary format: a 12-byte header
// (magic, version, count), then per entry a length-prefixed path, a
// 32-byte OID, and mode/flags as little-endian uint32s.
func Encode(w io.Writer, s *Stage) error {
	var header [12]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(s.entries)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	for _, e := range s.entries {
		pathBytes := []byte(e.Path)
		if len(pathBytes) > 0xffff {
			return fmt.Errorf("stage: path %q too long to encode", e.Path)
		}
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(pathBytes)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(pathBytes); err != nil {
			return err
		}
		if _, err := w.Write(e.OID[:]); err != nil {
			return err
		}
		var rest [8]byte
		binary.LittleEndian.PutUint32(rest[0:4], uint32(e.Mode))
		binary.LittleEndian.PutUint32(rest[4:8], uint32(e.Flags))
		if _, err := w.Write(rest[:]); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a stage previously written by Encode into a fresh Stage.
func Decode(r io.Reader) (*Stage, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if string(header[0:4]) != string(magic[:]) {
		return nil, ErrBadMagic
	}
	count := binary.LittleEndian.Uint32(header[8:12])

	s := &Stage{entries: make([]Entry, 0, count)}
	for i := uint32(0); i < count; i++ {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, err
		}
		pathLen := binary.LittleEndian.Uint16(lenBuf[:])
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(r, pathBytes); err != nil {
			return nil, err
		}
		var id oid.OID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, err
		}
		var rest [8]byte
		if _, err := io.ReadFull(r, rest[:]); err != nil {
			return nil, err
		}
		s.entries = append(s.entries, Entry{
			Path:  string(pathBytes),
			OID:   id,
			Mode:  object.FileMode(binary.LittleEndian.Uint32(rest[0:4])),
			Flags: Flag(binary.LittleEndian.Uint32(rest[4:8])),
		})
	}
	return s, nil
}

// Load reads the stage file at path, returning a fresh empty Stage if it
// does not exist yet (the initial state of a new repository).
func Load(path string) (*Stage, error) {
	fd, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	defer fd.Close()
	return Decode(bufio.NewReader(fd))
}

// Save persists s to path via a temp-file-then-rename swap.
func Save(path string, s *Stage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "temp_stage")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, s); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
