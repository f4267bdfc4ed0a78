// Package reflog implements the append-only history of values a
// reference has taken (C11): newest-first in memory, oldest-first on
// disk (every write rewrites the whole file through a temp file), one
// log file per reference under logs/.
//
// Grounded on modules/zeta/reflog/reflog.go directly: the same
// "old new signature\tmessage" line format, the same
// lock-file-then-temp-file-then-rename write discipline, and the same
// tolerant parser that silently skips unparsable lines rather than
// failing the whole read.
package reflog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

// dirName is the top-level directory holding per-reference log files.
const dirName = "logs"

// errUnparsableLine is returned internally while parsing; malformed lines
// are skipped rather than surfaced, matching the teacher's tolerant read.
var errUnparsableLine = errors.New("reflog: unparsable line")

// Entry is one recorded transition of a reference's value.
type Entry struct {
	Old       oid.OID
	New       oid.OID
	Committer object.Signature
	Message   string
}

// Log is one reference's reflog, held newest-entry-first.
type Log struct {
	name    refs.Name
	Entries []Entry
}

// Empty reports whether l has no entries.
func (l *Log) Empty() bool { return l == nil || len(l.Entries) == 0 }

// Push records a new entry at the front. Old is taken from the previous
// newest entry's New value (or the zero OID, for the first entry).
func (l *Log) Push(newOID oid.OID, committer object.Signature, message string) {
	e := Entry{New: newOID, Committer: committer, Message: message}
	if len(l.Entries) > 0 {
		e.Old = l.Entries[0].New
	}
	l.Entries = append([]Entry{e}, l.Entries...)
}

// DB manages reflog files under root/logs/.
type DB struct {
	root string
}

// NewDB returns a DB rooted at root (a repository's top-level metadata
// directory).
func NewDB(root string) *DB {
	return &DB{root: root}
}

func (d *DB) path(name refs.Name) string {
	return filepath.Join(d.root, dirName, filepath.FromSlash(string(name)))
}

// Exists reports whether a log file exists for name.
func (d *DB) Exists(name refs.Name) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

// Read loads name's reflog, or an empty one if no log file exists yet.
func (d *DB) Read(name refs.Name) (*Log, error) {
	fd, err := os.Open(d.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Log{name: name}, nil
		}
		return nil, err
	}
	defer fd.Close()

	entries, err := parse(fd)
	if err != nil {
		return nil, err
	}
	return &Log{name: name, Entries: entries}, nil
}

// parse reads oldest-first on-disk lines and returns them newest-first,
// silently skipping any line that doesn't match the expected format.
func parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	var onDisk []Entry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			continue
		}
		onDisk = append(onDisk, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(onDisk))
	for i, e := range onDisk {
		entries[len(onDisk)-1-i] = e
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	oldField, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, errUnparsableLine
	}
	newField, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return Entry{}, errUnparsableLine
	}
	oldOID, err := oid.Parse(oldField)
	if err != nil {
		return Entry{}, errUnparsableLine
	}
	newOID, err := oid.Parse(newField)
	if err != nil {
		return Entry{}, errUnparsableLine
	}
	signature, message := rest, ""
	if tab := strings.IndexByte(rest, '\t'); tab != -1 {
		signature, message = rest[:tab], rest[tab+1:]
	}
	var sig object.Signature
	sig.Decode([]byte(signature))
	return Entry{Old: oldOID, New: newOID, Committer: sig, Message: message}, nil
}

// Write persists l under a lock file, via a temp-file-then-rename swap so
// a crash never leaves a half-written log.
func (d *DB) Write(l *Log) error {
	logPath := d.path(l.name)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o777); err != nil {
		return err
	}
	lock := logPath + ".lock"
	fd, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("reflog: %s is locked by a concurrent writer", l.name)
		}
		return err
	}
	defer os.Remove(lock)
	_ = fd.Close()

	tmp, err := os.CreateTemp(filepath.Dir(logPath), "temp_reflog")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	if err := serialize(w, l.Entries); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, logPath)
}

// serialize writes entries oldest-first, matching the on-disk convention
// that a newer entry always appends.
func serialize(w io.Writer, entries []Entry) error {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		msg := strings.ReplaceAll(e.Message, "\n", " ")
		if msg == "" {
			if _, err := fmt.Fprintf(w, "%s %s %s\n", e.Old, e.New, e.Committer.String()); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\t%s\n", e.Old, e.New, e.Committer.String(), msg); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes name's log file. It is not an error if none exists.
func (d *DB) Delete(name refs.Name) error {
	err := os.Remove(d.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
