package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/service/chat"
)

type chatRequest struct {
	Messages    json.RawMessage `json:"messages"`
	ExcelOutput json.RawMessage `json:"excelOutput"`
	FormValues  json.RawMessage `json:"formValues"`
}

// AIChat 对话中继
// POST /api/aichat
func (h *Handler) AIChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages inválido"})
		return
	}

	messages, ok := decodeMessages(req.Messages)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages inválido"})
		return
	}

	reply, err := h.deps.Chat.Reply(c.Request.Context(), messages, req.ExcelOutput, req.FormValues)
	if errors.Is(err, chat.ErrEmptyConversation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages inválido"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao processar IA", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// decodeMessages messages 必须是数组
func decodeMessages(raw json.RawMessage) ([]model.ChatMessage, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false
	}
	return messages, true
}
