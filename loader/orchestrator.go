// Package loader serves remote resources from the local store or the
// network, and turns them into articles and photos.
package loader

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/scipunch/articleviewer/cache"
	"github.com/scipunch/articleviewer/fetcher"
)

// Orchestrator implements the cache-or-fetch policy shared by every loader
type Orchestrator struct {
	store   cache.Store
	fetcher fetcher.Fetcher

	// collapses identical in-flight requests; forced and unforced requests
	// never share a flight
	group singleflight.Group
}

func NewOrchestrator(store cache.Store, f fetcher.Fetcher) *Orchestrator {
	return &Orchestrator{store: store, fetcher: f}
}

// Load returns the bytes stored under key, fetching url when the key is
// missing or force is set. Fetched bytes are written back on a best-effort
// basis. The returned slice may be shared with concurrent callers and must
// not be modified.
func (o *Orchestrator) Load(ctx context.Context, key cache.Key, url string, force bool) ([]byte, error) {
	v, err, shared := o.group.Do(string(key)+"\x00"+strconv.FormatBool(force), func() (any, error) {
		return o.load(ctx, key, url, force)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("joined in-flight load", "key", key)
	}
	return v.([]byte), nil
}

func (o *Orchestrator) load(ctx context.Context, key cache.Key, url string, force bool) ([]byte, error) {
	if !force {
		exists, err := o.store.Exists(key)
		if err != nil {
			return nil, &Failure{Kind: KindIO, Key: key, Err: err}
		}
		if exists {
			data, err := o.store.Read(key)
			if err != nil {
				return nil, &Failure{Kind: KindIO, Key: key, Err: err}
			}
			slog.Debug("cache hit", "key", key, "size", len(data))
			return data, nil
		}
	}

	data, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &Failure{Kind: KindNetwork, Key: key, Err: err}
	}

	if err := o.store.Write(key, data); err != nil {
		slog.Warn("failed to persist fetched data", "key", key, "error", err)
	}
	return data, nil
}
