package storagebackend

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCS is a Backend backed by a Google Cloud Storage bucket.
type GCS struct {
	client *gcstorage.Client
	bucket string
	prefix string
}

// NewGCS returns a Backend scoped to bucket, with all keys additionally
// namespaced under prefix.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCS) key(key string) string {
	if g.prefix == "" {
		return key
	}
	return g.prefix + "/" + key
}

func (g *GCS) object(key string) *gcstorage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.key(key))
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCS) OpenReader(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (g *GCS) Put(ctx context.Context, key string, b []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	w := g.object(key).NewWriter(ctx)
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := g.object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := g.object(key).Delete(ctx); err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	it := g.client.Bucket(g.bucket).Objects(ctx, &gcstorage.Query{Prefix: g.key(prefix)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, strings.TrimPrefix(attrs.Name, g.key("")))
	}
	sort.Strings(out)
	return out, nil
}
