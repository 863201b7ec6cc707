package feed

import (
	"testing"
)

func TestFilterer_NoFilters(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "Test Item 1"},
		{ID: "2", Title: "Test Item 2"},
	}

	kept, dropped := NewFilterer(nil).Run(items)

	if len(kept) != 2 {
		t.Errorf("Expected 2 items, got %d", len(kept))
	}
	if len(dropped) != 0 {
		t.Errorf("Expected no dropped items, got %v", dropped)
	}
}

func TestFilterer_TitleIncludeFilter(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "Breaking News: Important Update"},
		{ID: "2", Title: "Sports Update"},
		{ID: "3", Title: "Weather Report"},
	}

	filterer := NewFilterer([]Filter{{Field: "title", Includes: []string{"news", "update"}}})
	kept, dropped := filterer.Run(items)

	if len(kept) != 2 {
		t.Fatalf("Expected 2 kept items, got %d", len(kept))
	}
	if kept[0].ID != "1" || kept[1].ID != "2" {
		t.Errorf("Unexpected kept items: %v", kept)
	}
	if _, ok := dropped["3"]; !ok {
		t.Errorf("Weather Report should be dropped")
	}
}

func TestFilterer_ExcludeWins(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "Sponsored: Tech Update", Link: "https://example.com/ads/1"},
		{ID: "2", Title: "Tech Update", Link: "https://example.com/posts/2"},
	}

	filterer := NewFilterer([]Filter{
		{Field: "title", Includes: []string{"tech"}},
		{Field: "link", Excludes: []string{"/ADS/"}},
	})
	kept, dropped := filterer.Run(items)

	if len(kept) != 1 || kept[0].ID != "2" {
		t.Fatalf("Expected only item 2, got %v", kept)
	}
	if reason := dropped["1"]; reason != "excluded by link filter: contains '/ADS/'" {
		t.Errorf("Unexpected reason: %q", reason)
	}
}

func TestFilterer_UnknownFieldMatchesNothing(t *testing.T) {
	items := []Item{{ID: "1", Title: "Anything"}}

	kept, _ := NewFilterer([]Filter{{Field: "author", Includes: []string{"x"}}}).Run(items)
	if len(kept) != 0 {
		t.Errorf("Expected include on unknown field to drop the item")
	}
}
