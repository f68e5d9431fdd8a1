package loader

import (
	"errors"
	"fmt"

	"github.com/scipunch/articleviewer/cache"
)

// Kind classifies why a load failed
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork      // connect, timeout or non-2xx response
	KindIO           // local store read or lookup
	KindParse        // malformed list payload
	KindDecode       // malformed image payload
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Failure is the single error type surfaced by the loaders
type Failure struct {
	Kind Kind
	Key  cache.Key
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure for %s: %v", f.Kind, f.Key, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}
