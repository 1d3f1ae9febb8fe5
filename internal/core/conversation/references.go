package conversation

import (
	"regexp"
	"strings"
)

// ReferenceExtractor 從歷史助理訊息還原「已展示過的食譜標題」清單。
// 輸出為時間順序（索引 0 = 最早出現的標題），序數指稱以此為準。
type ReferenceExtractor struct{}

// 三種渲染樣式各自獨立的抽取規則，依優先序套用：
// 編號清單 > 粗體標題 > 帶食物圖示的標頭。
// 生成模型可能用任一種樣式列出食譜，不要合併成單一 pattern。
var (
	numberedItemPattern = regexp.MustCompile(`(\d+)\.\s+\*{0,2}([^\n*:]+?)\*{0,2}(?:\s*—|\s*:|\n|$)`)
	boldTitlePattern    = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	headerTitlePattern  = regexp.MustCompile(`#+\s+🍽️\s+([^\n]+)`)
)

// NewReferenceExtractor 創建標題抽取器
func NewReferenceExtractor() *ReferenceExtractor {
	return &ReferenceExtractor{}
}

// Extract 掃描助理訊息（由新到舊），抽出去重後的標題清單，
// 最後組回時間順序。沒有助理訊息時回傳空切片。
// 反轉只在訊息層級做，同一則訊息內的標題維持出現順序，
// 否則序數指稱會對錯項目。
func (e *ReferenceExtractor) Extract(turns []Turn) []string {
	var blocks [][]string
	seen := make(map[string]bool)

	// 由新到舊掃描，讓最近展示的標題先佔住去重位置
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != RoleAssistant {
			continue
		}
		content := turns[i].Content

		var block []string
		appendTitle := func(raw string) {
			title := cleanTitle(raw)
			if !isValidTitle(title) {
				return
			}
			key := strings.ToLower(title)
			if seen[key] {
				return
			}
			seen[key] = true
			block = append(block, title)
		}

		for _, m := range numberedItemPattern.FindAllStringSubmatch(content, -1) {
			appendTitle(m[2])
		}
		for _, m := range boldTitlePattern.FindAllStringSubmatch(content, -1) {
			appendTitle(m[1])
		}
		for _, m := range headerTitlePattern.FindAllStringSubmatch(content, -1) {
			appendTitle(m[1])
		}

		if len(block) > 0 {
			blocks = append(blocks, block)
		}
	}

	var titles []string
	for i := len(blocks) - 1; i >= 0; i-- {
		titles = append(titles, blocks[i]...)
	}
	return titles
}

// cleanTitle 去除裝飾與多餘空白
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "*")
	title = strings.TrimSuffix(strings.TrimSpace(title), ":")
	return strings.Join(strings.Fields(title), " ")
}

// isValidTitle 過濾停用詞與過短字串
func isValidTitle(title string) bool {
	if len(title) <= 3 {
		return false
	}
	if isTitleStopWord(title) {
		return false
	}
	words := strings.Fields(title)
	allStop := true
	for _, w := range words {
		if !isTitleStopWord(w) {
			allStop = false
			break
		}
	}
	return !allStop
}
