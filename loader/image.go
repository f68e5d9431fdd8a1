package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/scipunch/articleviewer/cache"
	"github.com/scipunch/articleviewer/photo"
)

// ErrNoImageURL is returned for photo URLs that name no resource
var ErrNoImageURL = errors.New("image URL names no resource")

// ImageLoader loads article photos, one store entry per image URL
type ImageLoader struct {
	orch    *Orchestrator
	decoder photo.Decoder
}

func NewImageLoader(orch *Orchestrator, decoder photo.Decoder) *ImageLoader {
	return &ImageLoader{orch: orch, decoder: decoder}
}

// Load returns the photo at url, from the store when present
func (l *ImageLoader) Load(ctx context.Context, url string) (photo.Image, error) {
	return l.load(ctx, url, false)
}

// Refresh downloads the photo at url again and replaces the stored copy
func (l *ImageLoader) Refresh(ctx context.Context, url string) (photo.Image, error) {
	return l.load(ctx, url, true)
}

func (l *ImageLoader) load(ctx context.Context, url string, force bool) (photo.Image, error) {
	key := cache.ImageKey(url)
	if key == "" {
		return photo.Image{}, &Failure{Kind: KindNetwork, Err: fmt.Errorf("%w: %q", ErrNoImageURL, url)}
	}
	data, err := l.orch.Load(ctx, key, url, force)
	if err != nil {
		return photo.Image{}, err
	}

	img, err := l.decoder.Decode(data)
	if err != nil {
		return photo.Image{}, &Failure{Kind: KindDecode, Key: key, Err: err}
	}
	return img, nil
}
