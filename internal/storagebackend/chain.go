package storagebackend

import (
	"context"
	"errors"
	"sort"
)

// Chain composes several backends into one: reads fall through the list
// in order until one succeeds, writes/deletes always target the first
// ("primary") backend. This mirrors the teacher's multiStorage
// fallback-chain combinator, generalized to the get/put/exists/delete/
// list-with-prefix contract used here.
type Chain struct {
	backends []Backend
}

// NewChain builds a fallback chain. The first backend is the primary
// (write) target; at least one backend is required.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

func (c *Chain) Get(ctx context.Context, key string) ([]byte, error) {
	var lastErr error = ErrNotFound
	for _, b := range c.backends {
		v, err := b.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Chain) Put(ctx context.Context, key string, b []byte) error {
	if len(c.backends) == 0 {
		return errors.New("storagebackend: empty chain")
	}
	return c.backends[0].Put(ctx, key, b)
}

func (c *Chain) Exists(ctx context.Context, key string) (bool, error) {
	for _, b := range c.backends {
		ok, err := b.Exists(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Chain) Delete(ctx context.Context, key string) error {
	if len(c.backends) == 0 {
		return nil
	}
	return c.backends[0].Delete(ctx, key)
}

func (c *Chain) List(ctx context.Context, prefix string) ([]string, error) {
	if len(c.backends) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, b := range c.backends {
		keys, err := b.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
