package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/scipunch/articleviewer/config"
	"github.com/scipunch/articleviewer/fetcher"
	"github.com/scipunch/articleviewer/parser/jsonlist"
)

const twoArticles = `[{"id":1,"title":"A","photo":"http://x/a.jpg"},{"id":2,"title":"B","photo":"http://x/b.jpg"}]`

type listServer struct {
	*httptest.Server
	hits atomic.Int32
	body atomic.Value // string
}

func newListServer(t *testing.T, body string) *listServer {
	t.Helper()
	s := &listServer{}
	s.body.Store(body)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s.body.Load().(string)))
	}))
	t.Cleanup(s.Close)
	return s
}

func newListLoader(t *testing.T, url string) *ListLoader {
	t.Helper()
	f := fetcher.NewHTTPFetcher(config.Default().Network, fetcher.WithContentType("application/json"))
	return NewListLoader(NewOrchestrator(newFileStore(t), f), url, jsonlist.New())
}

func TestListLoader_Load(t *testing.T) {
	server := newListServer(t, twoArticles)
	l := newListLoader(t, server.URL)

	list, err := l.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("Expected 2 articles, got %d", list.Len())
	}
	first, _ := list.At(0)
	if first.ID != 1 || first.Title != "A" || first.ImageURL != "http://x/a.jpg" {
		t.Errorf("Unexpected first article %+v", first)
	}
}

func TestListLoader_CachedUntilForced(t *testing.T) {
	server := newListServer(t, twoArticles)
	l := newListLoader(t, server.URL)
	ctx := context.Background()

	if _, err := l.Load(ctx, false); err != nil {
		t.Fatal(err)
	}
	server.body.Store(`[{"id":3,"title":"C","photo":"http://x/c.jpg"}]`)

	list, err := l.Load(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if list.Len() != 2 || server.hits.Load() != 1 {
		t.Errorf("Expected cached list without a request, got %d articles after %d requests", list.Len(), server.hits.Load())
	}

	list, err = l.Load(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if list.Len() != 1 || server.hits.Load() != 2 {
		t.Errorf("Expected refreshed list, got %d articles after %d requests", list.Len(), server.hits.Load())
	}
}

func TestListLoader_ParseFailure(t *testing.T) {
	server := newListServer(t, `[{"id":1,"title":"A"}]`)
	l := newListLoader(t, server.URL)

	list, err := l.Load(context.Background(), false)
	if KindOf(err) != KindParse {
		t.Errorf("Expected parse failure, got %v", err)
	}
	if list.Len() != 0 {
		t.Errorf("Expected no partial list, got %d articles", list.Len())
	}
}

func TestListLoader_HTTPErrorIsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newListLoader(t, server.URL).Load(context.Background(), false)
	if KindOf(err) != KindNetwork {
		t.Errorf("Expected network failure, got %v", err)
	}
}
