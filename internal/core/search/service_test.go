package search

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/fvaletk/tastyai/internal/core/conversation"
)

func TestBuildQuery(t *testing.T) {
	prefs := conversation.UnknownPreferences()
	prefs.Dish = "lasagna"
	prefs.Cuisine = "italian"
	prefs.Ingredients = []string{"beef", "tomato"}

	if got := BuildQuery(prefs); got != "lasagna italian beef tomato" {
		t.Fatalf("BuildQuery() = %q", got)
	}
}

func TestBuildQuerySkipsUnknownAndNone(t *testing.T) {
	prefs := conversation.UnknownPreferences()
	prefs.Diet = "none"
	prefs.MealType = "dinner"

	if got := BuildQuery(prefs); got != "dinner" {
		t.Fatalf("BuildQuery() = %q, want unknown and none skipped", got)
	}
}

func TestBuildQueryDefaultFallback(t *testing.T) {
	if got := BuildQuery(conversation.UnknownPreferences()); got != "healthy dinner" {
		t.Fatalf("BuildQuery() = %q, want default query", got)
	}
}

func TestMetadataListTolerance(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["flour", "eggs"]`, []string{"flour", "eggs"}},
		{"stringified array", `"[\"flour\", \"eggs\"]"`, []string{"flour", "eggs"}},
		{"plain string", `"flour"`, []string{"flour"}},
		{"empty string", `""`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := map[string]json.RawMessage{"ingredients": json.RawMessage(tt.raw)}
			if got := metadataList(meta, "ingredients"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("metadataList(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}

	if got := metadataList(map[string]json.RawMessage{}, "missing"); got != nil {
		t.Errorf("metadataList(missing) = %v, want nil", got)
	}
}
