package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/graph"
	"github.com/JeeerryZ/simuladordre/internal/mapping"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/service/simulation"
)

// Calculate 提交情景并返回计算结果
// POST /api/calculate
func (h *Handler) Calculate(c *gin.Context) {
	var in model.ScenarioInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corpo da requisição inválido", "detail": err.Error()})
		return
	}

	out, err := h.deps.Calculator.Calculate(c.Request.Context(), &in)
	if err != nil {
		status, body := calculateError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("calculate failed", zap.Int("status", status), zap.Error(err))
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, out)
}

// calculateError 计算错误 -> HTTP 状态与响应体
func calculateError(err error) (int, gin.H) {
	var fe model.FieldErrors
	var ue *simulation.UpstreamError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, gin.H{"error": "Dados do formulário inválidos", "fields": fe}
	case errors.Is(err, mapping.ErrLayoutMismatch):
		return http.StatusConflict, gin.H{"error": "A planilha não corresponde ao layout esperado", "detail": err.Error()}
	case errors.Is(err, graph.ErrMissingCredentials):
		return http.StatusInternalServerError, gin.H{"error": "Credenciais do Microsoft Graph não configuradas", "detail": err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{"error": "Tempo esgotado ao calcular", "detail": err.Error()}
	case errors.As(err, &ue):
		return http.StatusBadGateway, gin.H{"error": "Erro ao calcular", "detail": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Erro ao calcular", "detail": err.Error()}
	}
}
