package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fvaletk/tastyai/internal/pkg/common"
)

type fakeRetriever struct {
	results []RecipeRecord
	err     error
	calls   int
}

func (f *fakeRetriever) Search(_ context.Context, _ Preferences) ([]RecipeRecord, error) {
	f.calls++
	return f.results, f.err
}

type fakeStore struct {
	turns   map[string][]Turn
	carried map[string][]RecipeRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		turns:   make(map[string][]Turn),
		carried: make(map[string][]RecipeRecord),
	}
}

func (f *fakeStore) AppendTurn(_ context.Context, id, role, content string) error {
	f.turns[id] = append(f.turns[id], NewTurn(role, content))
	return nil
}

func (f *fakeStore) LoadTurns(_ context.Context, id string) ([]Turn, error) {
	return append([]Turn(nil), f.turns[id]...), nil
}

func (f *fakeStore) SaveCarried(_ context.Context, id string, results []RecipeRecord) error {
	f.carried[id] = append([]RecipeRecord(nil), results...)
	return nil
}

func (f *fakeStore) LoadCarried(_ context.Context, id string) ([]RecipeRecord, error) {
	return append([]RecipeRecord(nil), f.carried[id]...), nil
}

// scenarioOracle 依 system prompt 路由到各階段的腳本回覆
func scenarioOracle(responses map[string]string) *fakeOracle {
	return &fakeOracle{respond: func(system, user string) (string, error) {
		switch {
		case strings.Contains(system, "intent classification"):
			return responses["intent"], nil
		case strings.Contains(system, "analyzing recipe requests"):
			return responses["request"], nil
		case strings.Contains(system, "extracts user meal preferences"):
			return responses["preferences"], nil
		case strings.Contains(system, "summarization"):
			return responses["summary"], nil
		case strings.Contains(system, "accurate comparisons"):
			return responses["comparison"], nil
		case strings.Contains(system, "nutrition and cooking"):
			return responses["general"], nil
		default:
			return responses["browse"], nil
		}
	}}
}

func italianRecipes() []RecipeRecord {
	return []RecipeRecord{
		{Title: "Lasagna Bolognese", Ingredients: []string{"lasagna sheets", "beef", "tomato"}, Directions: []string{"Brown beef.", "Layer.", "Bake."}, Source: "Gathered", Link: "https://example.com/1"},
		{Title: "Margherita Pizza", Ingredients: []string{"dough", "mozzarella"}, Directions: []string{"Stretch dough.", "Bake."}, Source: "Gathered"},
		{Title: "Pesto Pasta", Ingredients: []string{"pasta", "basil"}, Directions: []string{"Boil.", "Toss."}, Source: "Gathered"},
	}
}

func TestHandleTurnNewSearch(t *testing.T) {
	oracle := scenarioOracle(map[string]string{
		"intent":      `{"intent": "new_search", "confidence": 0.9, "reasoning": "first request"}`,
		"preferences": `{"language": "English", "cuisine": "italian", "meal_type": "dinner", "cooking_time": "quick"}`,
		"summary":     "User just asked for a quick Italian dinner.",
		"browse":      "Here are three lovely Italian dinners:\n1. **Lasagna Bolognese** — a rich classic\n2. **Margherita Pizza** — simple\n3. **Pesto Pasta** — quick\nWhich one sounds good?",
	})
	retriever := &fakeRetriever{results: italianRecipes()}
	store := newFakeStore()
	m := NewStateMachine(oracle, retriever, store, 4, 6)

	res, err := m.HandleTurn(context.Background(), "", "I want a quick Italian dinner")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if res.ConversationID == "" {
		t.Fatal("HandleTurn() did not mint a conversation id")
	}
	if res.Intent.Intent != IntentNewSearch {
		t.Fatalf("intent = %s, want new_search", res.Intent.Intent)
	}
	if retriever.calls != 1 {
		t.Fatalf("retriever calls = %d, want 1", retriever.calls)
	}
	// 瀏覽回覆只列選項，不含完整步驟
	if strings.Contains(res.Reply, "**Directions:**") {
		t.Fatalf("browse reply must not contain full directions:\n%s", res.Reply)
	}
	if res.Preferences.Cuisine != "italian" || res.Preferences.Dish != SlotUnknown {
		t.Fatalf("preferences = %+v, want normalized italian prefs", res.Preferences)
	}
	// 本輪結果被存為下一輪的帶入結果
	if len(store.carried[res.ConversationID]) != 3 {
		t.Fatalf("carried results = %d, want 3", len(store.carried[res.ConversationID]))
	}
	// 使用者訊息先入庫，助理回覆後入庫
	logged := store.turns[res.ConversationID]
	if len(logged) != 2 || logged[0].Role != RoleUser || logged[1].Role != RoleAssistant {
		t.Fatalf("logged turns = %+v, want [user, assistant]", logged)
	}
}

func TestHandleTurnFullRecipeSelection(t *testing.T) {
	const id = "conv-1"
	oracle := scenarioOracle(map[string]string{
		"intent":  `{"intent": "recipe_request", "confidence": 0.95, "reasoning": "ordinal selection"}`,
		"request": `{"type": "specific_recipe", "matched_recipe_title": "Lasagna Bolognese", "reasoning": "recipe #1"}`,
	})
	retriever := &fakeRetriever{}
	store := newFakeStore()
	store.turns[id] = []Turn{
		NewTurn(RoleUser, "I want a quick Italian dinner"),
		NewTurn(RoleAssistant, "1. **Lasagna Bolognese** — a rich classic\n2. **Margherita Pizza** — simple\n3. **Pesto Pasta** — quick\n"),
	}
	store.carried[id] = italianRecipes()
	m := NewStateMachine(oracle, retriever, store, 4, 6)

	res, err := m.HandleTurn(context.Background(), id, "the first one")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.HasPrefix(res.Reply, "Here's the full recipe for **Lasagna Bolognese**.") {
		t.Fatalf("reply = %q, want full recipe intro", res.Reply)
	}
	if !strings.Contains(res.Reply, "1. 🔪 Brown beef.") {
		t.Fatalf("reply missing directions:\n%s", res.Reply)
	}
	if retriever.calls != 0 {
		t.Fatalf("retriever calls = %d, selection must not retrieve", retriever.calls)
	}
}

func TestHandleTurnComparisonKeepsPool(t *testing.T) {
	const id = "conv-2"
	oracle := scenarioOracle(map[string]string{
		"intent":     `{"intent": "comparison", "confidence": 0.9, "reasoning": "comparing prep time"}`,
		"comparison": "The Pesto Pasta is quickest, with just two steps.",
	})
	retriever := &fakeRetriever{}
	store := newFakeStore()
	store.turns[id] = []Turn{
		NewTurn(RoleUser, "Italian dinner"),
		NewTurn(RoleAssistant, "1. **Lasagna Bolognese**\n2. **Margherita Pizza**\n3. **Pesto Pasta**\n"),
	}
	store.carried[id] = italianRecipes()
	m := NewStateMachine(oracle, retriever, store, 4, 6)

	res, err := m.HandleTurn(context.Background(), id, "which one is quicker?")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if res.Reply != "The Pesto Pasta is quickest, with just two steps." {
		t.Fatalf("reply = %q", res.Reply)
	}
	if retriever.calls != 0 {
		t.Fatalf("retriever calls = %d, comparison must not retrieve", retriever.calls)
	}
	// 結果池原封不動帶到下一輪
	carried := store.carried[id]
	if len(carried) != 3 || carried[0].Title != "Lasagna Bolognese" {
		t.Fatalf("carried pool changed: %+v", carried)
	}
}

func TestHandleTurnGeneralCourtesy(t *testing.T) {
	const id = "conv-3"
	courtesy := "You're welcome! Ping me if you need another meal recommendation."
	oracle := scenarioOracle(map[string]string{
		"intent":  `{"intent": "general", "confidence": 0.9, "reasoning": "politeness"}`,
		"summary": "User thanked the assistant.",
		"general": courtesy,
	})
	store := newFakeStore()
	store.turns[id] = []Turn{
		NewTurn(RoleUser, "Italian dinner"),
		NewTurn(RoleAssistant, "1. **Lasagna Bolognese**\n"),
	}
	store.carried[id] = italianRecipes()
	m := NewStateMachine(oracle, &fakeRetriever{}, store, 4, 6)

	res, err := m.HandleTurn(context.Background(), id, "thanks, you're amazing")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if res.Reply != courtesy {
		t.Fatalf("reply = %q, want courtesy closing", res.Reply)
	}
}

func TestHandleTurnEmptyMessage(t *testing.T) {
	m := NewStateMachine(&fakeOracle{}, &fakeRetriever{}, newFakeStore(), 4, 6)
	if _, err := m.HandleTurn(context.Background(), "", "   "); err == nil {
		t.Fatal("HandleTurn() expected validation error for empty message")
	}
}

func TestHandleTurnNoResults(t *testing.T) {
	oracle := scenarioOracle(map[string]string{
		"intent":      `{"intent": "new_search", "confidence": 0.9, "reasoning": "first request"}`,
		"preferences": `{"language": "English", "cuisine": "martian"}`,
	})
	m := NewStateMachine(oracle, &fakeRetriever{results: nil}, newFakeStore(), 4, 6)

	_, err := m.HandleTurn(context.Background(), "", "martian cuisine please")
	if !errors.Is(err, common.ErrNoResults) {
		t.Fatalf("HandleTurn() error = %v, want ErrNoResults", err)
	}
}

func TestHandleTurnRetrieverFailureDegrades(t *testing.T) {
	oracle := scenarioOracle(map[string]string{
		"intent":      `{"intent": "new_search", "confidence": 0.9, "reasoning": "first request"}`,
		"preferences": `{"language": "English"}`,
	})
	m := NewStateMachine(oracle, &fakeRetriever{err: errors.New("index unreachable")}, newFakeStore(), 4, 6)

	res, err := m.HandleTurn(context.Background(), "", "dinner ideas")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v, network failure must degrade to apology", err)
	}
	if res.Reply != apologyNoRecipes {
		t.Fatalf("reply = %q, want apology", res.Reply)
	}
}

func TestHandleTurnNewDishReenters(t *testing.T) {
	const id = "conv-4"
	oracle := scenarioOracle(map[string]string{
		"intent":      `{"intent": "recipe_request", "confidence": 0.8, "reasoning": "wants a recipe"}`,
		"request":     `{"type": "new_dish", "dish_name": "pad thai", "reasoning": "not shown before"}`,
		"preferences": `{"language": "English", "dish": "pad thai"}`,
		"summary":     "User switched to Thai food.",
		"browse":      "How about these pad thai ideas?",
	})
	retriever := &fakeRetriever{results: []RecipeRecord{{Title: "Classic Pad Thai"}}}
	store := newFakeStore()
	store.turns[id] = []Turn{
		NewTurn(RoleUser, "Italian dinner"),
		NewTurn(RoleAssistant, "1. **Lasagna Bolognese**\n"),
	}
	store.carried[id] = italianRecipes()
	m := NewStateMachine(oracle, retriever, store, 4, 6)

	res, err := m.HandleTurn(context.Background(), id, "actually, can you find me a pad thai recipe instead?")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if retriever.calls != 1 {
		t.Fatalf("retriever calls = %d, new_dish must retrieve", retriever.calls)
	}
	if len(res.Results) != 1 || res.Results[0].Title != "Classic Pad Thai" {
		t.Fatalf("results = %+v, want the fresh retrieval", res.Results)
	}
}
