package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func shownRecipeTurns() []Turn {
	return []Turn{
		NewTurn(RoleUser, "I want Italian food"),
		NewTurn(RoleAssistant, "1. **Lasagna Bolognese** — a rich classic\n2. **Margherita Pizza** — simple\n3. **Pesto Pasta** — quick\n"),
	}
}

func TestResolveSpecificRecipe(t *testing.T) {
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return `{"type": "specific_recipe", "matched_recipe_title": "Lasagna Bolognese", "dish_name": null, "reasoning": "ordinal reference to recipe #1"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "the first one"))
	got := r.Resolve(context.Background(), turns, nil, "user selecting a recipe")
	if got.Type != RequestSpecificRecipe || got.MatchedRecipeTitle != "Lasagna Bolognese" {
		t.Fatalf("Resolve() = %+v, want specific_recipe Lasagna Bolognese", got)
	}
}

func TestResolvePromptNumbersShownTitlesFromOne(t *testing.T) {
	var captured string
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		captured = user
		return `{"type": "new_dish", "reasoning": "x"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "something new"))
	r.Resolve(context.Background(), turns, nil, "")

	if !strings.Contains(captured, "1. Lasagna Bolognese") || !strings.Contains(captured, "3. Pesto Pasta") {
		t.Fatalf("prompt missing 1-indexed shown titles:\n%s", captured)
	}
}

func TestResolvePromptTruncatesOnRuneBoundary(t *testing.T) {
	// 長訊息截斷不能把多位元組字元切成半個
	var captured string
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		captured = user
		return `{"type": "new_dish", "reasoning": "x"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	long := strings.Repeat("我想吃辣的川菜", 40)
	turns := append(shownRecipeTurns(), NewTurn(RoleUser, long))
	r.Resolve(context.Background(), turns, nil, "")

	if !utf8.ValidString(captured) {
		t.Fatalf("prompt contains invalid UTF-8:\n%q", captured)
	}
	if strings.Contains(captured, string(utf8.RuneError)) {
		t.Fatalf("prompt contains replacement rune:\n%q", captured)
	}
}

func TestResolveSuppressesComparisonVocabulary(t *testing.T) {
	// 模型誤判比較提問為 specific_recipe 時要降級為 dish
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return `{"type": "specific_recipe", "matched_recipe_title": "Lasagna Bolognese", "reasoning": "mentions lasagna"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "which one is healthier?"))
	got := r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestDish {
		t.Fatalf("Resolve() type = %s, want dish after suppression", got.Type)
	}
	if got.MatchedRecipeTitle != "" {
		t.Fatalf("Resolve() matched title = %q, want cleared", got.MatchedRecipeTitle)
	}
	if !strings.HasPrefix(got.Reasoning, "Suppressed:") {
		t.Fatalf("Resolve() reasoning = %q, want Suppressed prefix", got.Reasoning)
	}
}

func TestResolveNoSuppressionWithExplicitCue(t *testing.T) {
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return `{"type": "specific_recipe", "matched_recipe_title": "Margherita Pizza", "reasoning": "explicit request"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "which is better? actually give me the recipe for the pizza"))
	got := r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestSpecificRecipe {
		t.Fatalf("Resolve() type = %s, explicit request must not be suppressed", got.Type)
	}
}

func TestResolveNoSuppressionWithOrdinal(t *testing.T) {
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return `{"type": "specific_recipe", "matched_recipe_title": "Margherita Pizza", "reasoning": "ordinal"}`, nil
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "between those, the second one"))
	got := r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestSpecificRecipe {
		t.Fatalf("Resolve() type = %s, ordinal reference must not be suppressed", got.Type)
	}
}

func TestResolveFallbackShortMessageWithShownRecipes(t *testing.T) {
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return "", errors.New("upstream down")
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	turns := append(shownRecipeTurns(), NewTurn(RoleUser, "the pizza maybe"))
	got := r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestDish {
		t.Fatalf("Resolve() type = %s, want dish fallback for short message", got.Type)
	}
}

func TestResolveFallbackNewDish(t *testing.T) {
	oracle := &fakeOracle{respond: func(system, user string) (string, error) {
		return "", errors.New("upstream down")
	}}
	r := NewRequestResolver(oracle, NewReferenceExtractor())

	// 沒展示過任何食譜
	turns := []Turn{NewTurn(RoleUser, "pizza")}
	got := r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestNewDish {
		t.Fatalf("Resolve() type = %s, want new_dish fallback", got.Type)
	}

	// 展示過但訊息超過 5 詞
	turns = append(shownRecipeTurns(), NewTurn(RoleUser, "I would love something totally different for tonight"))
	got = r.Resolve(context.Background(), turns, nil, "")
	if got.Type != RequestNewDish {
		t.Fatalf("Resolve() type = %s, want new_dish fallback for long message", got.Type)
	}
}
