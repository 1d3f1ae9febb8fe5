package conversation

import "context"

// Oracle 外部推理服務的最小介面。
// 每次呼叫是一趟阻塞的請求往返，呼叫端自行處理失敗降級，不重試。
type Oracle interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Retriever 食譜向量檢索介面
type Retriever interface {
	Search(ctx context.Context, prefs Preferences) ([]RecipeRecord, error)
}

// Store 對話儲存介面：訊息日誌必須保留插入順序，
// 帶入結果（carried results）在每輪開始讀取、結束時覆寫。
type Store interface {
	AppendTurn(ctx context.Context, conversationID, role, content string) error
	LoadTurns(ctx context.Context, conversationID string) ([]Turn, error)
	SaveCarried(ctx context.Context, conversationID string, results []RecipeRecord) error
	LoadCarried(ctx context.Context, conversationID string) ([]RecipeRecord, error)
}
