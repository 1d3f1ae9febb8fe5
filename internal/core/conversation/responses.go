package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// 各回應策略的降級文案。內部失敗一律降級為道歉或盡力而為的文字，
// 不把原始錯誤丟給使用者。
const (
	apologyComparison = "Sorry, I couldn't compare those recipes right now. Try rephrasing?"
	apologyGeneral    = "Sorry, I couldn't answer that question right now. Try rephrasing?"
	apologyNoRecipes  = "Sorry, I couldn't find any recipes right now."
	apologyNoContext  = "Sorry, I couldn't find any recipes to answer your question about."
)

const assistantPersona = `You are TastyAI, a multilingual, friendly, food-loving AI chef.

Always respond in this language: %s.
Sound like a passionate home cook or restaurant chef talking naturally to a friend.
Avoid repetitive greetings and generic intros; continue the flow of the chat.
Be warm, playful, and concise. Do not overexplain.`

// Responder 產生各策略的自然語言回覆
type Responder struct {
	oracle       Oracle
	summaryTurns int
}

// NewResponder 創建回覆產生器
func NewResponder(oracle Oracle, summaryTurns int) *Responder {
	if summaryTurns <= 0 {
		summaryTurns = 6
	}
	return &Responder{
		oracle:       oracle,
		summaryTurns: summaryTurns,
	}
}

// Summarize 把近期使用者訊息濃縮成一小段偏好演變摘要。
// 失敗時回傳固定句子，不中斷回覆流程。
func (r *Responder) Summarize(ctx context.Context, turns []Turn) string {
	var userMsgs []string
	for _, t := range turns {
		if t.Role == RoleUser {
			userMsgs = append(userMsgs, t.Content)
		}
	}
	if len(userMsgs) == 0 {
		return "The conversation just started. The user is making an initial request for a meal."
	}
	if len(userMsgs) > r.summaryTurns {
		userMsgs = userMsgs[len(userMsgs)-r.summaryTurns:]
	}

	prompt := fmt.Sprintf(`Summarize the following conversation turns into one short paragraph
describing how the user's meal preferences have evolved.
Avoid greetings or repetitive phrasing.

Conversation:
%s`, strings.Join(userMsgs, "\n"))

	summary, err := r.oracle.Complete(ctx, "You are a concise summarization assistant.", prompt, 0.3)
	if err != nil {
		common.LogWarn("對話摘要失敗，使用固定文案", zap.Error(err))
		return "User has shared several changing preferences for dinner ideas."
	}
	return strings.TrimSpace(summary)
}

// BrowseOptions 「瀏覽選項」回覆：只列標題與簡短描述，不含完整食材與步驟，
// 邀請使用者選一個再展示完整食譜。
func (r *Responder) BrowseOptions(ctx context.Context, prefs Preferences, results []RecipeRecord, turns []Turn) string {
	if len(results) == 0 {
		return "Sorry, I couldn't find any recipes matching your preferences right now."
	}

	summary := r.Summarize(ctx, turns)

	var options strings.Builder
	for i, rec := range results {
		if i >= 5 {
			break
		}
		descriptor := "various ingredients"
		if len(rec.Ingredients) > 0 {
			head := rec.Ingredients
			if len(head) > 3 {
				head = head[:3]
			}
			descriptor = strings.Join(head, ", ")
		}
		options.WriteString(fmt.Sprintf("%d. **%s** — made with %s...\n", i+1, rec.Title, descriptor))
	}

	prompt := fmt.Sprintf(`Here's what has happened so far:
%s

Current user preferences:
- Cuisine: %s
- Dish: %s
- Ingredients: %s
- Meal type: %s
- Cooking time: %s

Available recipe options:
%s
The user has expressed interest in this type of dish but hasn't selected a specific recipe yet.
Present these recipe options in a friendly, conversational way.
DO NOT include full ingredients or directions - just describe each option briefly and invite them to choose one.
Ask which recipe they'd like to see, or offer to show them the full recipe for one of these options.
Be warm and helpful, but wait for them to select a specific recipe before providing full details.`,
		summary, prefs.Cuisine, prefs.Dish, common.StringSliceToString(prefs.Ingredients),
		prefs.MealType, prefs.CookingTime, options.String())

	reply, err := r.oracle.Complete(ctx, fmt.Sprintf(assistantPersona, prefs.ReplyLanguage()), prompt, 0.8)
	if err != nil {
		common.LogWarn("選項回覆生成失敗，使用純標題清單", zap.Error(err))
		var fallback strings.Builder
		fallback.WriteString("Here are some great options for you:\n\n")
		for i, rec := range results {
			if i >= 5 {
				break
			}
			fallback.WriteString(fmt.Sprintf("- %s\n", rec.Title))
		}
		fallback.WriteString("\nWhich one would you like the full recipe for?")
		return fallback.String()
	}
	return strings.TrimSpace(reply)
}

// Comparison 比較回覆：取結果池前 3 筆的實際食材數與步驟數當比較依據。
// 不做任何新的檢索。
func (r *Responder) Comparison(ctx context.Context, pool []RecipeRecord, userMessage, language string, turns []Turn) string {
	if len(pool) == 0 {
		return apologyNoContext
	}

	var details strings.Builder
	for i, rec := range pool {
		if i >= 3 {
			break
		}
		details.WriteString(fmt.Sprintf("Recipe %d: %s\n", i+1, rec.Title))
		details.WriteString(fmt.Sprintf("  ingredients_count: %d\n", len(rec.Ingredients)))
		details.WriteString(fmt.Sprintf("  steps_count: %d\n", len(rec.Directions)))
		if len(rec.Directions) > 0 {
			details.WriteString(fmt.Sprintf("  directions: %s\n", strings.Join(rec.Directions, " | ")))
		}
	}

	var history strings.Builder
	for _, t := range RecentTurns(turns, r.summaryTurns) {
		history.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
	}

	prompt := fmt.Sprintf(`The user previously received the following recipe suggestions:

%s
Full conversation history:
%s
The user's latest question: "%s"

Respond in %s, as a friendly home cook helping someone decide between options.

IMPORTANT INSTRUCTIONS:
- Look at the actual recipe directions to estimate preparation time
- Count the number of steps and complexity of each step
- Recipes with fewer steps and simpler instructions generally take less time
- Be specific when comparing - use the actual step counts and ingredient counts
- Focus on what the user asked about (prep time, ingredients, healthiness, etc.)
- Keep it brief, warm, and helpful
- Do NOT list all recipes again unless directly relevant
- Answer their specific question directly first, then add context if helpful`,
		details.String(), history.String(), userMessage, language)

	reply, err := r.oracle.Complete(ctx,
		"You are a warm and concise food assistant who provides accurate comparisons based on recipe data.",
		prompt, 0.7)
	if err != nil {
		common.LogWarn("比較回覆生成失敗，使用道歉文案", zap.Error(err))
		return apologyComparison
	}
	return strings.TrimSpace(reply)
}

// General 一般問答回覆：用結果池當背景回答營養、時間、健康等問題。
// 純客套訊息會得到固定的收尾文案。
func (r *Responder) General(ctx context.Context, pool []RecipeRecord, userMessage, language string, turns []Turn) string {
	if len(pool) == 0 {
		return apologyNoContext
	}

	summary := r.Summarize(ctx, turns)

	var recipes strings.Builder
	for i, rec := range pool {
		if i >= 3 {
			break
		}
		recipes.WriteString(fmt.Sprintf("Recipe: %s\n", rec.Title))
		recipes.WriteString(fmt.Sprintf("  ingredients: %s\n", strings.Join(rec.Ingredients, ", ")))
		recipes.WriteString(fmt.Sprintf("  steps: %d\n", len(rec.Directions)))
		recipes.WriteString(fmt.Sprintf("  source: %s\n", rec.Source))
	}

	system := fmt.Sprintf(`You are TastyAI, a multilingual, friendly, food-loving AI chef with expertise in nutrition and cooking.

Always respond in this language: %s.
Sound like a knowledgeable home cook or nutritionist talking naturally to a friend.
Be warm, helpful, and accurate.

The user is asking a general question about the recipes (nutrition, time, health, allergies, etc.).
Answer their specific question based on the recipe data provided.`, language)

	prompt := fmt.Sprintf(`Conversation context:
%s

Available recipes:
%s
User's question: "%s"

Based on the recipe information above, answer the user's question. Focus on:
- Nutritional information (carbs, protein, calories if you can estimate from ingredients)
- Preparation and cooking time (estimate from the number of steps and complexity)
- Health considerations (diabetes-friendly, allergy concerns, dietary restrictions)
- Ingredient details and substitutions

Be specific and helpful, but acknowledge when you're making estimates.
If the user is just being polite and saying things like "thank you" or "you're amazing",
then just say "You're welcome! Ping me if you need another meal recommendation." and end the conversation.`,
		summary, recipes.String(), userMessage)

	reply, err := r.oracle.Complete(ctx, system, prompt, 0.7)
	if err != nil {
		common.LogWarn("一般回覆生成失敗，使用道歉文案", zap.Error(err))
		return apologyGeneral
	}
	return strings.TrimSpace(reply)
}

// FullRecipe 完整食譜回覆：開場句加固定排版的食譜區塊。純函式。
func (r *Responder) FullRecipe(rec RecipeRecord) string {
	intro := fmt.Sprintf("Here's the full recipe for **%s**.\n", strings.TrimSpace(rec.Title))
	return intro + FormatRecipe(rec)
}
