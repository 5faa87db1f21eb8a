package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeSearcher struct {
	got string
	out string
	err error
}

func (f *fakeSearcher) Call(_ context.Context, input string) (string, error) {
	f.got = input
	return f.out, f.err
}

func TestWikipedia_Execute(t *testing.T) {
	searcher := &fakeSearcher{out: "Page: Pythagorean theorem\nSummary: a² + b² = c²"}
	wiki := NewWikipediaWithSearcher(searcher)

	result, err := wiki.Execute(context.Background(), `{"query": "Pythagorean theorem"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if searcher.got != "Pythagorean theorem" {
		t.Errorf("searcher got %q", searcher.got)
	}
	if !result.IsSuccess() || !strings.Contains(result.Output, "a² + b² = c²") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestWikipedia_Failures(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		result, _ := NewWikipediaWithSearcher(&fakeSearcher{}).Execute(context.Background(), `{"query": ""}`)
		if result.IsSuccess() {
			t.Error("expected failure for empty query")
		}
	})

	t.Run("lookup error", func(t *testing.T) {
		wiki := NewWikipediaWithSearcher(&fakeSearcher{err: errors.New("503")})
		result, err := wiki.Execute(context.Background(), "primes")
		if err != nil {
			t.Fatalf("lookup errors should become results, got %v", err)
		}
		if result.IsSuccess() {
			t.Error("expected failed result")
		}
	})

	t.Run("no results", func(t *testing.T) {
		result, _ := NewWikipediaWithSearcher(&fakeSearcher{}).Execute(context.Background(), "zzzz")
		if result.Output != "No good Wikipedia search result was found" {
			t.Errorf("unexpected output %q", result.Output)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		wiki := NewWikipediaWithSearcher(&fakeSearcher{err: context.Canceled})
		if _, err := wiki.Execute(ctx, "primes"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNewWikipedia(t *testing.T) {
	wiki := NewWikipedia(WikipediaConfig{UserAgent: "mathbot-test"})
	if wiki.Name() != "Wikipedia" {
		t.Errorf("unexpected name %q", wiki.Name())
	}
	if wiki.searcher == nil {
		t.Error("expected a searcher")
	}
}
