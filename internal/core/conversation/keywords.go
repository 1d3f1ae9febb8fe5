package conversation

import "strings"

// 比對、序數與停用詞的單一出處。
// 抑制誤判的反模式檢查與比較意圖偵測共用同一份詞彙表。

// comparisonCues 比較提問的完整詞彙，涵蓋營養、時間、難度、成本與偏好
var comparisonCues = []string{
	// 直接比較
	"compare", "comparison", "which one", "which is", "difference", "different",
	"vs", "versus", "between",

	// 營養比較
	"healthier", "more protein", "fewer carbs", "less carbs", "more carbs",
	"calories", "fat content", "nutritious",

	// 時間比較
	"quicker", "faster", "slower", "longer", "shorter",
	"prep time", "cooking time", "preparation time",
	"less time", "more time", "takes less", "takes more",
	"how long", "time to prepare", "time to cook",

	// 難度比較
	"easier", "simpler", "harder", "more difficult", "complicated",

	// 成本與替代
	"cheaper", "expensive", "alternative", "substitute",

	// 偏好與推薦
	"better", "prefer", "recommend", "suggest", "best",
}

// comparisonQuestionCues 反模式子集：訊息帶這些疑問詞彙時，
// 除非同時有明確的食譜請求語句，否則不視為食譜選擇
var comparisonQuestionCues = []string{
	"which one", "which is", "what is", "what's the", "how does", "compare",
	"difference", "versus", "vs", "between", "better", "prefer",
}

// explicitRecipeCues 明確的完整食譜請求語句
var explicitRecipeCues = []string{
	"give me the recipe", "show me the recipe", "how do i make", "how to make",
	"full recipe", "recipe for", "would like the recipe", "want the recipe",
	"need the recipe", "can i have the recipe", "instructions for",
	"how to prepare", "recipe please", "i'll take", "i choose",
	"let's go with", "i'd like to try",
}

// ordinalIndex 序數詞對應結果清單索引："first" = 索引 0。
// 不收 "one"：在 "which one"、"that one" 裡是代名詞，不是序數。
var ordinalIndex = map[string]int{
	"first":  0,
	"1":      0,
	"second": 1,
	"2":      1,
	"two":    1,
	"third":  2,
	"3":      2,
	"three":  2,
}

// titleStopWords 不可能是食譜標題的詞
var titleStopWords = map[string]bool{
	"crust":       true,
	"ingredients": true,
	"toppings":    true,
	"directions":  true,
	"source":      true,
	"recipe":      true,
	"option":      true,
	"choice":      true,
}

// HasComparisonCue 檢查訊息是否帶比較詞彙
func HasComparisonCue(message string) bool {
	msg := strings.ToLower(message)
	for _, cue := range comparisonCues {
		if strings.Contains(msg, cue) {
			return true
		}
	}
	return false
}

// HasComparisonQuestionCue 檢查訊息是否命中反模式子集
func HasComparisonQuestionCue(message string) bool {
	msg := strings.ToLower(message)
	for _, cue := range comparisonQuestionCues {
		if strings.Contains(msg, cue) {
			return true
		}
	}
	return false
}

// HasExplicitRecipeCue 檢查訊息是否帶明確的食譜請求語句
func HasExplicitRecipeCue(message string) bool {
	msg := strings.ToLower(message)
	for _, cue := range explicitRecipeCues {
		if strings.Contains(msg, cue) {
			return true
		}
	}
	return false
}

// OrdinalReference 從訊息的字面內容找序數指稱，回傳對應索引。
// limit 為結果清單長度，超出範圍的序數不算命中。
func OrdinalReference(message string, limit int) (int, bool) {
	words := strings.Fields(strings.ToLower(message))
	for _, w := range words {
		w = strings.Trim(w, ".,!?#")
		if idx, ok := ordinalIndex[w]; ok && idx < limit {
			return idx, true
		}
	}
	return 0, false
}

// isTitleStopWord 檢查單詞是否為標題停用詞
func isTitleStopWord(word string) bool {
	return titleStopWords[strings.ToLower(word)]
}
