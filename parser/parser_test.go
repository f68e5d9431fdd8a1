package parser

import (
	"errors"
	"testing"
)

func TestList_At(t *testing.T) {
	list := NewList([]Article{
		{ID: 1, Title: "A", ImageURL: "http://x/a.jpg"},
		{ID: 2, Title: "B", ImageURL: "http://x/b.jpg"},
	})

	tests := []struct {
		name    string
		pos     int
		wantID  int
		wantErr bool
	}{
		{name: "first", pos: 0, wantID: 1},
		{name: "last", pos: 1, wantID: 2},
		{name: "negative", pos: -1, wantErr: true},
		{name: "past end", pos: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := list.At(tt.pos)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Errorf("Expected ErrOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("At(%d) failed: %v", tt.pos, err)
			}
			if a.ID != tt.wantID {
				t.Errorf("At(%d).ID = %d, want %d", tt.pos, a.ID, tt.wantID)
			}
		})
	}
}

func TestList_Immutable(t *testing.T) {
	src := []Article{{ID: 1, Title: "A"}}
	list := NewList(src)

	src[0].Title = "changed"
	out := list.Articles()
	out[0].Title = "changed too"

	a, _ := list.At(0)
	if a.Title != "A" {
		t.Errorf("Snapshot was mutated: %q", a.Title)
	}
}

func TestList_Zero(t *testing.T) {
	var list List
	if list.Len() != 0 {
		t.Errorf("Expected empty list, got %d", list.Len())
	}
	if _, err := list.At(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}
