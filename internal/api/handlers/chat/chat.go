package chat

import (
	"errors"
	"net/http"

	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 對話處理器
type Handler struct {
	machine *conversation.StateMachine
	store   conversation.Store
}

// NewHandler 創建對話處理器
func NewHandler(machine *conversation.StateMachine, store conversation.Store) *Handler {
	return &Handler{
		machine: machine,
		store:   store,
	}
}

// ChatRequest 單輪對話請求
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"` // 留空表示開新對話
	Message        string `json:"message" binding:"required"`
}

// ChatResponse 單輪對話回應
type ChatResponse struct {
	ConversationID string                      `json:"conversation_id"`
	Reply          string                      `json:"reply"`
	Intent         string                      `json:"intent"`
	Confidence     float64                     `json:"confidence"`
	RequestType    string                      `json:"request_type,omitempty"`
	Preferences    conversation.Preferences    `json:"preferences"`
	Results        []conversation.RecipeRecord `json:"results"`
	Turns          []conversation.Turn         `json:"turns"`
}

// HandleChat 處理單輪對話
func (h *Handler) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "message is required",
		})
		return
	}

	result, err := h.machine.HandleTurn(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := ChatResponse{
		ConversationID: result.ConversationID,
		Reply:          result.Reply,
		Intent:         string(result.Intent.Intent),
		Confidence:     result.Intent.Confidence,
		Preferences:    result.Preferences,
		Results:        result.Results,
		Turns:          result.Turns,
	}
	if result.Request != nil {
		resp.RequestType = string(result.Request.Type)
	}

	c.JSON(http.StatusOK, resp)
}

// HistoryResponse 對話歷史回應
type HistoryResponse struct {
	ConversationID string              `json:"conversation_id"`
	Turns          []conversation.Turn `json:"turns"`
}

// HandleHistory 讀取完整對話歷史
func (h *Handler) HandleHistory(c *gin.Context) {
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "conversation id is required",
		})
		return
	}

	turns, err := h.store.LoadTurns(c.Request.Context(), conversationID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		ConversationID: conversationID,
		Turns:          turns,
	})
}

// writeError 把內部錯誤映射成統一的錯誤回應格式
func (h *Handler) writeError(c *gin.Context, err error) {
	common.LogError("對話請求失敗",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
	)

	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}

	var custom *common.CustomError
	if errors.As(err, &custom) {
		c.JSON(custom.Status, common.ErrorResponse{
			Code:    custom.Code,
			Message: custom.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	})
}
