package conversation

import (
	"context"
	"strings"
	"sync"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// StateMachine 把意圖分類、請求解析與食譜選擇串成五種回應策略：
//
//	new_search     -> 解析偏好、重新檢索、產生「瀏覽選項」回覆
//	comparison     -> 不檢索，沿用結果池，產生比較回覆
//	general        -> 不檢索，用結果池背景回答
//	recipe_request -> specific_recipe / dish / new_dish 三分支
//
// 每輪的副作用順序固定：先記錄使用者訊息，再分類；
// 回覆產生後記錄助理訊息，最後把本輪結果存為下一輪的帶入結果。
type StateMachine struct {
	classifier *IntentClassifier
	resolver   *RequestResolver
	parser     *PreferenceParser
	selector   *RecipeSelector
	responder  *Responder
	retriever  Retriever
	store      Store

	// 同一對話的多輪必須序列化，避免帶入結果的讀寫競爭；
	// 不同對話之間不共享鎖
	locks sync.Map
}

// NewStateMachine 創建對話狀態機
func NewStateMachine(oracle Oracle, retriever Retriever, store Store, contextWindow, summaryTurns int) *StateMachine {
	extractor := NewReferenceExtractor()
	return &StateMachine{
		classifier: NewIntentClassifier(oracle, contextWindow),
		resolver:   NewRequestResolver(oracle, extractor),
		parser:     NewPreferenceParser(oracle),
		selector:   NewRecipeSelector(),
		responder:  NewResponder(oracle, summaryTurns),
		retriever:  retriever,
		store:      store,
	}
}

// TurnResult 單輪處理結果。Intent 與 Request 為本輪暫態，不做持久化。
type TurnResult struct {
	ConversationID string
	Reply          string
	Intent         IntentResult
	Request        *RequestResult
	Preferences    Preferences
	Results        []RecipeRecord
	Turns          []Turn
}

// 非檢索路徑不重新解析偏好，回覆語言交給生成模型跟隨使用者
const followUserLanguage = "the same language as the user's latest message"

// HandleTurn 處理一輪使用者輸入。
// 只有「沒有任何可用結果」的情況會以錯誤上報，其餘失敗都降級為回覆文字。
func (m *StateMachine) HandleTurn(ctx context.Context, conversationID, userInput string) (*TurnResult, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, common.NewValidationError("message is required")
	}

	if conversationID == "" {
		conversationID = common.GenerateUUID()
	}

	mu := m.lockFor(conversationID)
	mu.Lock()
	defer mu.Unlock()

	// 讀取歷史與上一輪帶入的結果
	turns, err := m.store.LoadTurns(ctx, conversationID)
	if err != nil {
		common.LogError("讀取對話歷史失敗", zap.Error(err), zap.String("conversation_id", conversationID))
		turns = nil
	}
	carried, err := m.store.LoadCarried(ctx, conversationID)
	if err != nil {
		common.LogWarn("讀取帶入結果失敗", zap.Error(err), zap.String("conversation_id", conversationID))
		carried = nil
	}

	// 分類前先記錄使用者訊息
	if err := m.store.AppendTurn(ctx, conversationID, RoleUser, userInput); err != nil {
		common.LogError("記錄使用者訊息失敗", zap.Error(err), zap.String("conversation_id", conversationID))
	}
	turns = append(turns, NewTurn(RoleUser, userInput))

	result := &TurnResult{
		ConversationID: conversationID,
		Preferences:    UnknownPreferences(),
		Results:        carried,
	}

	result.Intent = m.classifier.Classify(ctx, turns)

	switch result.Intent.Intent {
	case IntentComparison:
		// 比較不觸發檢索，結果池原封不動帶到下一輪
		result.Reply = m.responder.Comparison(ctx, carried, userInput, followUserLanguage, turns)

	case IntentGeneral:
		result.Reply = m.responder.General(ctx, carried, userInput, followUserLanguage, turns)

	case IntentRecipeRequest:
		if err := m.handleRecipeRequest(ctx, result, turns, carried, userInput); err != nil {
			return nil, err
		}

	default: // new_search
		if err := m.handleNewSearch(ctx, result, turns); err != nil {
			return nil, err
		}
	}

	// 記錄助理回覆，並把本輪結果存為下一輪的帶入結果
	if err := m.store.AppendTurn(ctx, conversationID, RoleAssistant, result.Reply); err != nil {
		common.LogError("記錄助理回覆失敗", zap.Error(err), zap.String("conversation_id", conversationID))
	}
	turns = append(turns, NewTurn(RoleAssistant, result.Reply))
	result.Turns = turns

	if err := m.store.SaveCarried(ctx, conversationID, result.Results); err != nil {
		common.LogWarn("保存帶入結果失敗", zap.Error(err), zap.String("conversation_id", conversationID))
	}

	return result, nil
}

// handleNewSearch 解析偏好、執行檢索並產生瀏覽選項回覆
func (m *StateMachine) handleNewSearch(ctx context.Context, result *TurnResult, turns []Turn) error {
	prefs, err := m.parser.Parse(ctx, turns)
	if err != nil {
		// 解析失敗降級為全未知偏好，檢索端有通用詞可用
		common.LogWarn("偏好解析降級為未知", zap.Error(err))
		prefs = UnknownPreferences()
	}
	result.Preferences = prefs

	results, err := m.retriever.Search(ctx, prefs)
	if err != nil {
		common.LogError("食譜檢索失敗", zap.Error(err))
		result.Reply = apologyNoRecipes
		result.Results = nil
		return nil
	}
	if len(results) == 0 {
		// 檢索正常但一筆都沒有：這是請求級失敗，上報給外層
		return common.ErrNoResults
	}

	result.Results = results
	result.Reply = m.responder.BrowseOptions(ctx, prefs, results, turns)
	return nil
}

// handleRecipeRequest 處理 recipe_request 的三個分支
func (m *StateMachine) handleRecipeRequest(ctx context.Context, result *TurnResult, turns []Turn, carried []RecipeRecord, userInput string) error {
	rr := m.resolver.Resolve(ctx, turns, carried, result.Intent.Reasoning)
	result.Request = &rr

	switch rr.Type {
	case RequestSpecificRecipe:
		pool := MergeResults(nil, carried)
		if len(pool) == 0 {
			result.Reply = apologyNoRecipes
			return nil
		}
		selection := m.selector.Select(rr.MatchedRecipeTitle, userInput, pool)
		if selection == nil || selection.Recipe == nil {
			result.Reply = apologyNoRecipes
			return nil
		}
		if selection.LowConfidence {
			common.LogWarn("未能精確比對食譜，改用排名第一的結果",
				zap.String("requested_title", rr.MatchedRecipeTitle),
				zap.String("selected_title", selection.Recipe.Title),
			)
		}
		result.Reply = m.responder.FullRecipe(*selection.Recipe)

	case RequestDish:
		// 重提先前的菜式：過濾結果池後重新渲染選項，不做新的檢索
		pool := filterByDish(carried, rr.DishName)
		if len(pool) == 0 {
			result.Reply = apologyNoRecipes
			return nil
		}
		prefs := UnknownPreferences()
		prefs.Dish = rr.DishName
		result.Preferences = prefs
		result.Reply = m.responder.BrowseOptions(ctx, prefs, pool, turns)

	default: // new_dish：等同重新進入 new_search，需要檢索
		return m.handleNewSearch(ctx, result, turns)
	}

	return nil
}

// filterByDish 依菜式名稱過濾結果池；過濾後為空則沿用整個池
func filterByDish(pool []RecipeRecord, dishName string) []RecipeRecord {
	dish := common.NormalizeTitle(dishName)
	if dish == "" {
		return pool
	}
	var filtered []RecipeRecord
	for _, r := range pool {
		if strings.Contains(r.NormalizedTitle(), dish) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return pool
	}
	return filtered
}

// lockFor 取得指定對話的鎖
func (m *StateMachine) lockFor(conversationID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
