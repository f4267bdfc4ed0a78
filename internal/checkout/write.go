package checkout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
)

func byteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// writeEntry materializes one blob or symlink entry at m.root/e.path.
func (m *Manager) writeEntry(ctx context.Context, e planEntry) error {
	dest := filepath.Join(m.root, filepath.FromSlash(e.path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("checkout: creating parent of %s: %w", e.path, err)
	}

	typ, raw, err := m.odb.Read(ctx, e.oid)
	if err != nil {
		return fmt.Errorf("checkout: reading blob for %s: %w", e.path, err)
	}
	if typ != object.TypeBlob {
		return fmt.Errorf("checkout: %s resolves to a %s, not a blob", e.path, typ)
	}

	if e.mode == object.ModeSymlink {
		return writeSymlink(dest, raw)
	}
	return writeRegular(dest, raw, osPerm(e.mode))
}

// writeSymlink creates dest as a symlink whose target is raw (the blob's
// content, matching checkoutSymlink's convention of storing the link
// target as the payload). On platforms where symlink creation requires
// privilege it is not the library's job to work around that; the error
// is returned as-is.
func writeSymlink(dest string, raw []byte) error {
	_ = os.Remove(dest)
	return os.Symlink(string(raw), dest)
}

// writeRegular writes raw to dest through a temp-file-then-rename swap in
// dest's own directory, so a crash mid-write never leaves a partial file
// visible at dest's final name.
func writeRegular(dest string, raw []byte, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "temp_checkout")
	if err != nil {
		return fmt.Errorf("checkout: creating temp file for %s: %w", dest, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, bytes.NewReader(raw)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("checkout: writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkout: closing temp file for %s: %w", dest, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("checkout: setting mode of %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("checkout: installing %s: %w", dest, err)
	}
	return nil
}

// osPerm translates a tree entry's mode to the permission bits used when
// creating its file, mirroring object.FileMode.ToOSFileMode in spirit:
// executable bit set for ModeExecutable, the conventional 0644 otherwise.
func osPerm(mode object.FileMode) os.FileMode {
	if mode == object.ModeExecutable {
		return 0o755
	}
	return 0o644
}
