package conversation

import (
	"strings"
	"testing"
)

func TestFormatRecipe(t *testing.T) {
	got := FormatRecipe(RecipeRecord{
		Title:       "Lasagna Bolognese",
		Link:        "https://example.com/lasagna",
		Ingredients: []string{"lasagna sheets", "ground beef"},
		Directions:  []string{"Brown the beef.", "Layer and bake."},
		Source:      "Example Kitchen",
	})

	for _, want := range []string{
		"### 🍽️ Lasagna Bolognese",
		"- 🧂 lasagna sheets",
		"- 🧂 ground beef",
		"1. 🔪 Brown the beef.",
		"2. 🔪 Layer and bake.",
		"📖 *Source: [Example Kitchen](https://example.com/lasagna)*",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatRecipe() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatRecipeMissingFields(t *testing.T) {
	got := FormatRecipe(RecipeRecord{})

	for _, want := range []string{
		"### 🍽️ Untitled Recipe",
		"No ingredients provided.",
		"No instructions provided.",
		"📖 *Source: Unknown Source*",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatRecipe() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "](") {
		t.Error("FormatRecipe() should not render a link without a URL")
	}
}

func TestFullRecipeIntro(t *testing.T) {
	r := NewResponder(nil, 0)
	got := r.FullRecipe(RecipeRecord{Title: "Greek Salad"})
	if !strings.HasPrefix(got, "Here's the full recipe for **Greek Salad**.\n") {
		t.Fatalf("FullRecipe() = %q, want intro line first", got)
	}
	if !strings.Contains(got, "### 🍽️ Greek Salad") {
		t.Fatalf("FullRecipe() missing formatted recipe block:\n%s", got)
	}
}
