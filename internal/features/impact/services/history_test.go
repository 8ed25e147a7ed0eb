package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"co2-bunny/internal/core"
)

func TestListRecentLimits(t *testing.T) {
	f := setup(t, &fakeProviders{})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := f.aggregator.Calculate(ctx, fmt.Sprintf("site-%d.com", i), "1000"); err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		f.clock.Advance(time.Minute)
	}

	t.Run("rejected", func(t *testing.T) {
		for _, limit := range []string{"0", "101", "abc", "-1", "1.5"} {
			if _, err := f.history.ListRecent(ctx, limit); !core.IsCode(err, core.ErrCodeValidation) {
				t.Errorf("ListRecent(%q) error = %v, want validation error", limit, err)
			}
		}
	})

	t.Run("accepted", func(t *testing.T) {
		tests := []struct {
			limit string
			want  int
		}{
			{"", DefaultRecentLimit},
			{"1", 1},
			{"100", 12},
			{"5", 5},
		}
		for _, tt := range tests {
			analyses, err := f.history.ListRecent(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListRecent(%q) failed: %v", tt.limit, err)
			}
			if len(analyses) != tt.want {
				t.Errorf("ListRecent(%q) returned %d rows, want %d", tt.limit, len(analyses), tt.want)
			}
		}
	})

	t.Run("newest first", func(t *testing.T) {
		analyses, err := f.history.ListRecent(ctx, "2")
		if err != nil {
			t.Fatalf("ListRecent failed: %v", err)
		}
		if analyses[0].URL != "site-11.com" || analyses[1].URL != "site-10.com" {
			t.Errorf("unexpected order: %s, %s", analyses[0].URL, analyses[1].URL)
		}
	})
}

func TestListByURL(t *testing.T) {
	f := setup(t, &fakeProviders{})
	ctx := context.Background()

	for _, views := range []string{"1", "2"} {
		if _, err := f.aggregator.Calculate(ctx, "example.com", views); err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		f.clock.Advance(time.Minute)
	}
	if _, err := f.aggregator.Calculate(ctx, "other.com", "1"); err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	analyses, err := f.history.ListByURL(ctx, "example.com")
	if err != nil {
		t.Fatalf("ListByURL failed: %v", err)
	}
	if len(analyses) != 2 || analyses[0].AnnualPageViews != 2 {
		t.Errorf("unexpected analyses: %+v", analyses)
	}

	if _, err := f.history.ListByURL(ctx, ""); !core.IsCode(err, core.ErrCodeValidation) {
		t.Errorf("ListByURL(\"\") error = %v, want validation error", err)
	}
}
