package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeeerryZ/simuladordre/internal/tips"
)

type tipRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	TipID string `json:"tipId"`
	Once  bool   `json:"once"`
	Hide  bool   `json:"hide"`
}

// OpenTips 打开页面提示总线
// POST /api/tips
func (h *Handler) OpenTips(c *gin.Context) {
	id, _ := h.deps.Tips.Open()
	c.JSON(http.StatusCreated, gin.H{"pageId": id})
}

// StreamTips 页面提示 SSE 流
// GET /api/tips/:page/stream
func (h *Handler) StreamTips(c *gin.Context) {
	bus, err := h.deps.Tips.Get(c.Param("page"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Página não encontrada"})
		return
	}
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming não suportado"})
		return
	}

	events, cancel := bus.Subscribe()
	defer cancel()

	setSSEHeaders(c)
	c.Status(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

// PublishTip 表单字段事件、指定提示或隐藏
// POST /api/tips/:page
func (h *Handler) PublishTip(c *gin.Context) {
	bus, err := h.deps.Tips.Get(c.Param("page"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Página não encontrada"})
		return
	}

	var req tipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corpo da requisição inválido", "detail": err.Error()})
		return
	}

	if req.Hide {
		bus.Hide()
		c.JSON(http.StatusOK, gin.H{"shown": false})
		return
	}

	var (
		tip   tips.Tip
		found bool
	)
	switch {
	case req.TipID != "":
		tip, found = tips.Lookup(req.TipID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dica desconhecida"})
			return
		}
	case req.Field != "":
		tip, found = tips.ForField(req.Field, req.Value)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe field, tipId ou hide"})
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"shown": false})
		return
	}

	var shown bool
	if req.Once {
		shown = bus.ShowOnce(tip)
	} else {
		shown = bus.Show(tip)
	}
	c.JSON(http.StatusOK, gin.H{"shown": shown, "tip": tip, "durationMs": tip.DurationMs()})
}

// CloseTips 关闭页面提示总线
// DELETE /api/tips/:page
func (h *Handler) CloseTips(c *gin.Context) {
	if err := h.deps.Tips.CloseBus(c.Param("page")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Página não encontrada"})
		return
	}
	c.Status(http.StatusNoContent)
}
