package conversation

import (
	"fmt"
	"strings"
)

// FormatRecipe 把單一食譜排成固定區塊的 markdown：
// 標題、食材清單、編號步驟、來源出處（有連結用連結，沒有用純文字）。
// 純函式，不碰任何外部服務。
func FormatRecipe(r RecipeRecord) string {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Untitled Recipe"
	}

	var ingredients string
	if len(r.Ingredients) > 0 {
		lines := make([]string, 0, len(r.Ingredients))
		for _, item := range r.Ingredients {
			lines = append(lines, fmt.Sprintf("- 🧂 %s", item))
		}
		ingredients = strings.Join(lines, "\n")
	} else {
		ingredients = "No ingredients provided."
	}

	var directions string
	if len(r.Directions) > 0 {
		lines := make([]string, 0, len(r.Directions))
		for i, step := range r.Directions {
			lines = append(lines, fmt.Sprintf("%d. 🔪 %s", i+1, step))
		}
		directions = strings.Join(lines, "\n")
	} else {
		directions = "No instructions provided."
	}

	source := strings.TrimSpace(r.Source)
	if source == "" {
		source = "Unknown Source"
	}
	link := strings.TrimSpace(r.Link)

	var attribution string
	if link != "" {
		attribution = fmt.Sprintf("\n\n📖 *Source: [%s](%s)*", source, link)
	} else {
		attribution = fmt.Sprintf("\n\n📖 *Source: %s*", source)
	}

	return fmt.Sprintf("### 🍽️ %s\n\n**Ingredients:**\n%s\n\n**Directions:**\n%s%s",
		title, ingredients, directions, attribution)
}
