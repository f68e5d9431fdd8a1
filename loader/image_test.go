package loader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/scipunch/articleviewer/cache"
	"github.com/scipunch/articleviewer/config"
	"github.com/scipunch/articleviewer/fetcher"
	"github.com/scipunch/articleviewer/photo"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageLoader_Load(t *testing.T) {
	var hits atomic.Int32
	body := pngBytes(t, 400, 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	store := newFileStore(t)
	orch := NewOrchestrator(store, fetcher.NewHTTPFetcher(config.Default().Network))
	l := NewImageLoader(orch, photo.NewDecoder(100, 0))
	url := server.URL + "/photos/a.png"

	img, err := l.Load(context.Background(), url)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() > 100 || b.Dy() > 100 {
		t.Errorf("Decoded %dx%d exceeds 100", b.Dx(), b.Dy())
	}
	if img.SampleSize != 2 {
		t.Errorf("Expected sample size 2, got %d", img.SampleSize)
	}

	stored, err := store.Read(cache.ImageKey(url))
	if err != nil {
		t.Fatalf("Raw bytes were not persisted: %v", err)
	}
	if !bytes.Equal(stored, body) {
		t.Error("Persisted bytes differ from the fetched ones")
	}

	if _, err := l.Load(context.Background(), url); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected cache hit, got %d requests", hits.Load())
	}

	if _, err := l.Refresh(context.Background(), url); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected refresh to fetch, got %d requests", hits.Load())
	}
}

func TestImageLoader_SchemeVariantsShareEntry(t *testing.T) {
	f := newFakeFetcher()
	f.set("http://x/a.png", pngBytes(t, 10, 10))
	orch := NewOrchestrator(newFileStore(t), f)
	l := NewImageLoader(orch, photo.NewDecoder(100, 0))

	if _, err := l.Load(context.Background(), "http://x/a.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), "https://x/a.png"); err != nil {
		t.Fatalf("https variant should hit the stored entry: %v", err)
	}
	if f.calls.Load() != 1 {
		t.Errorf("Expected 1 fetch, got %d", f.calls.Load())
	}
}

func TestImageLoader_DecodeFailure(t *testing.T) {
	f := newFakeFetcher()
	f.set(testURL, []byte("<html>not an image</html>"))
	l := NewImageLoader(NewOrchestrator(newFileStore(t), f), photo.NewDecoder(100, 0))

	_, err := l.Load(context.Background(), testURL)
	if KindOf(err) != KindDecode {
		t.Errorf("Expected decode failure, got %v", err)
	}
}

func TestImageLoader_NetworkFailure(t *testing.T) {
	f := newFakeFetcher()
	l := NewImageLoader(NewOrchestrator(newFileStore(t), f), photo.NewDecoder(100, 0))

	_, err := l.Load(context.Background(), "http://x/missing.jpg")
	if KindOf(err) != KindNetwork {
		t.Errorf("Expected network failure, got %v", err)
	}
}

func TestImageLoader_NestedURLs(t *testing.T) {
	f := newFakeFetcher()
	f.set("http://h/a", pngBytes(t, 10, 10))
	f.set("http://h/a/b", pngBytes(t, 20, 10))
	l := NewImageLoader(NewOrchestrator(newFileStore(t), f), photo.NewDecoder(100, 0))

	for i := 0; i < 2; i++ {
		for _, url := range []string{"http://h/a", "http://h/a/b"} {
			if _, err := l.Load(context.Background(), url); err != nil {
				t.Fatalf("Load %s failed: %v", url, err)
			}
		}
	}
	if f.calls.Load() != 2 {
		t.Errorf("Expected one fetch per URL, got %d", f.calls.Load())
	}

	img, err := l.Load(context.Background(), "http://h/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if img.Source.Width != 20 {
		t.Errorf("Got the wrong entry back: source width %d", img.Source.Width)
	}
}

func TestImageLoader_NoURL(t *testing.T) {
	f := newFakeFetcher()
	l := NewImageLoader(NewOrchestrator(newFileStore(t), f), photo.NewDecoder(100, 0))

	for _, url := range []string{"", "http://", "https://"} {
		_, err := l.Load(context.Background(), url)
		if KindOf(err) != KindNetwork {
			t.Errorf("Load(%q): expected network failure, got %v", url, err)
		}
		if !errors.Is(err, ErrNoImageURL) {
			t.Errorf("Load(%q): expected ErrNoImageURL, got %v", url, err)
		}
	}
	if f.calls.Load() != 0 {
		t.Errorf("Expected no fetch, got %d", f.calls.Load())
	}
}
