package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Store is the capability surface a reference backend must provide.
type Store interface {
	// Get returns the reference named name, or ErrNotFound.
	Get(name Name) (Reference, error)
	// Update performs a compare-and-swap write: if old is non-nil, the
	// write only proceeds if the reference's current value equals *old
	// (the zero Reference as old means "must not already exist").
	Update(ref Reference, old *Reference) error
	// Delete removes name. It is not an error if name does not exist.
	Delete(name Name) error
	// List returns every reference whose name has the given prefix,
	// sorted ascending by name.
	List(prefix string) ([]Reference, error)
	// Resolve follows a chain of symbolic references starting at name
	// until it reaches a Direct reference, returning that reference.
	Resolve(name Name) (Reference, error)
}

// Filesystem is a Store backed by one file per reference under root,
// matching git's and the teacher's on-disk layout.
type Filesystem struct {
	root string
}

// NewFilesystem returns a Store rooted at root (a repository's top-level
// metadata directory, the parent of "refs/" and "HEAD").
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: root}
}

func (f *Filesystem) path(name Name) string {
	return filepath.Join(f.root, filepath.FromSlash(string(name)))
}

// Get reads and parses the reference named name.
func (f *Filesystem) Get(name Name) (Reference, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Reference{}, ErrNotFound
		}
		return Reference{}, err
	}
	return Parse(name, string(data))
}

// Resolve follows ref's symbolic chain (bounded, to reject cycles) to its
// terminal Direct reference.
func (f *Filesystem) Resolve(name Name) (Reference, error) {
	const maxHops = 10
	cur := name
	for i := 0; i < maxHops; i++ {
		ref, err := f.Get(cur)
		if err != nil {
			return Reference{}, err
		}
		if ref.Kind() == Direct {
			return ref, nil
		}
		cur = ref.Target()
	}
	return Reference{}, fmt.Errorf("refs: symbolic reference chain from %s too deep", name)
}

func lockPath(p string) string { return p + ".lock" }

// Update writes ref under a lock file, verifying old (if non-nil) before
// the atomic rename into place, exactly as modules/zeta/refs/filesystem.go
// does for loose refs.
func (f *Filesystem) Update(ref Reference, old *Reference) error {
	target := f.path(ref.Name())
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	lock := lockPath(target)
	fd, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("refs: %s is locked by a concurrent update", ref.Name())
		}
		return err
	}
	defer os.Remove(lock)

	if err := f.checkOld(ref.Name(), old); err != nil {
		_ = fd.Close()
		return err
	}
	if _, err := fd.WriteString(ref.Content()); err != nil {
		_ = fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return err
	}
	return os.Rename(lock, target)
}

func (f *Filesystem) checkOld(name Name, old *Reference) error {
	if old == nil {
		return nil
	}
	current, err := f.Get(name)
	if errors.Is(err, ErrNotFound) {
		if old.Kind() == 0 {
			return nil // expected absence, confirmed
		}
		return ErrChanged
	}
	if err != nil {
		return err
	}
	if old.Kind() == 0 {
		return ErrChanged // expected absence, but it exists
	}
	if current.Kind() != old.Kind() || current.OID() != old.OID() || current.Target() != old.Target() {
		return ErrChanged
	}
	return nil
}

// Delete removes the reference named name. Deleting an absent reference
// is not an error.
func (f *Filesystem) Delete(name Name) error {
	err := os.Remove(f.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List walks refs/ beneath prefix and returns every reference found,
// sorted ascending by name.
func (f *Filesystem) List(prefix string) ([]Reference, error) {
	base := filepath.Join(f.root, filepath.FromSlash(prefix))
	var out []Reference
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		name := Name(filepath.ToSlash(rel))
		ref, err := f.Get(name)
		if err != nil {
			return err
		}
		out = append(out, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}
