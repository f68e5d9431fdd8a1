package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/scipunch/articleviewer/loader"
	"github.com/scipunch/articleviewer/parser"
	"github.com/scipunch/articleviewer/photo"
)

const connectionNotice = "Connection error, showing what is already loaded"

// viewer is the interactive browser. All fields are owned by the event loop
// goroutine; loads run as tasks and hand their results back through results.
type viewer struct {
	app *app
	out io.Writer

	snap loader.Snapshot
	pos  int

	listReq  loader.Latest
	imageReq loader.Latest

	image    *photo.Image
	imageURL string
	notice   string
	loading  int

	titles bool   // show the numbered title list
	jump   string // digits typed so far

	results chan func()
}

func newViewer(a *app, out io.Writer) *viewer {
	return &viewer{app: a, out: out, results: make(chan func())}
}

func browse(ctx context.Context, a *app, in *os.File, out io.Writer) error {
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to switch terminal to raw mode: %w", err)
		}
		defer term.Restore(fd, state)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := newViewer(a, out)
	v.reload(ctx, false)
	return v.run(ctx, readKeys(ctx, in))
}

func readKeys(ctx context.Context, in io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		r := bufio.NewReader(in)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}

func (v *viewer) run(ctx context.Context, keys <-chan byte) error {
	for {
		v.render()
		select {
		case <-ctx.Done():
			return nil
		case apply := <-v.results:
			apply()
		case key, ok := <-keys:
			if !ok || v.handleKey(ctx, key) {
				return nil
			}
		}
	}
}

// handleKey reacts to one key press and reports whether to quit
func (v *viewer) handleKey(ctx context.Context, key byte) bool {
	switch {
	case key == 'q', key == 3: // ctrl-c in raw mode
		return true
	case key >= '0' && key <= '9':
		v.jump += string(key)
	case key == '\r', key == '\n', key == 'g':
		if n, err := strconv.Atoi(v.jump); err == nil {
			v.goTo(ctx, n-1)
		}
		v.jump = ""
	case key == 27: // esc
		v.jump = ""
	case key == 'n', key == 'j':
		v.goTo(ctx, v.pos+1)
	case key == 'p', key == 'k':
		v.goTo(ctx, v.pos-1)
	case key == 'l':
		v.titles = !v.titles
	case key == 'r':
		v.reload(ctx, true)
	case key == 'R':
		v.showImage(ctx, true)
	}
	return false
}

// post hands a completed task back to the event loop
func post[T any](ctx context.Context, v *viewer, task *loader.Task[T], apply func(T, error)) {
	v.loading++
	go func() {
		value, err := task.Result()
		select {
		case v.results <- func() { v.loading--; apply(value, err) }:
		case <-ctx.Done():
		}
	}()
}

func (v *viewer) reload(ctx context.Context, force bool) {
	gen := v.listReq.Next()
	task := loader.Go(ctx, func(ctx context.Context) (parser.List, error) {
		return v.app.loadList(ctx, force)
	})
	post(ctx, v, task, func(list parser.List, err error) {
		if !v.listReq.IsCurrent(gen) {
			return
		}
		if err != nil {
			slog.Error("failed to load article list", "error", err, "kind", loader.KindOf(err))
			v.notice = connectionNotice
			return
		}
		v.notice = ""
		v.snap.Replace(list)
		if v.pos >= list.Len() {
			v.pos = max(0, list.Len()-1)
		}
		v.showImage(ctx, false)
	})
}

// goTo opens the article at index; indexes outside the list are ignored
func (v *viewer) goTo(ctx context.Context, index int) {
	if index < 0 || index >= v.snap.Load().Len() || index == v.pos {
		return
	}
	v.pos = index
	v.showImage(ctx, false)
}

// showImage starts loading the photo of the current article. A photo still
// loading for another article is left to finish and its result dropped.
func (v *viewer) showImage(ctx context.Context, force bool) {
	v.image = nil

	article, err := v.snap.Load().At(v.pos)
	if err != nil {
		v.imageURL = ""
		return
	}
	url := article.ImageURL
	v.imageURL = url

	gen := v.imageReq.Next()
	task := loader.Go(ctx, func(ctx context.Context) (photo.Image, error) {
		if force {
			return v.app.images.Refresh(ctx, url)
		}
		return v.app.images.Load(ctx, url)
	})
	post(ctx, v, task, func(img photo.Image, err error) {
		if !v.imageReq.IsCurrent(gen) {
			return
		}
		if err != nil {
			slog.Error("failed to load photo", "url", url, "error", err, "kind", loader.KindOf(err))
			v.notice = connectionNotice
			return
		}
		v.notice = ""
		v.image = &img
	})
}

func (v *viewer) render() {
	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	b.WriteString("articleviewer   [n]ext  [p]rev  <number>[g]o  [l]ist  [r]eload  [R]eload photo  [q]uit\r\n\r\n")

	list := v.snap.Load()
	if v.titles {
		for i, article := range list.Articles() {
			marker := " "
			if i == v.pos {
				marker = ">"
			}
			fmt.Fprintf(&b, "%s %3d. %s\r\n", marker, i+1, article.Title)
		}
		b.WriteString("\r\n")
	}
	if article, err := list.At(v.pos); err == nil {
		fmt.Fprintf(&b, "%d/%d  %s\r\n", v.pos+1, list.Len(), article.Title)
		fmt.Fprintf(&b, "%s\r\n", article.ImageURL)
		if v.image != nil {
			bounds := v.image.Bounds()
			fmt.Fprintf(&b, "photo %dx%d (source %dx%d %s, sample size %d)\r\n",
				bounds.Dx(), bounds.Dy(),
				v.image.Source.Width, v.image.Source.Height, v.image.Source.Format,
				v.image.SampleSize)
		}
	} else {
		b.WriteString("no articles\r\n")
	}

	if v.jump != "" {
		fmt.Fprintf(&b, "\r\ngo to: %s\r\n", v.jump)
	}
	if v.loading > 0 {
		b.WriteString("\r\nloading...\r\n")
	}
	if v.notice != "" {
		fmt.Fprintf(&b, "\r\n%s\r\n", v.notice)
	}
	io.WriteString(v.out, b.String())
}
