package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/service/summary"
)

// resultRequest 客户端保存的结果与表单值
type resultRequest struct {
	ExcelOutput *model.Output  `json:"excelOutput"`
	FormValues  map[string]any `json:"formValues"`
}

func bindResult(c *gin.Context) (resultRequest, bool) {
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corpo da requisição inválido", "detail": err.Error()})
		return req, false
	}
	if req.ExcelOutput == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "excelOutput ausente"})
		return req, false
	}
	return req, true
}

// Summary 结果页数据：卡片、汇总表、结论与图表
// POST /api/summary
func (h *Handler) Summary(c *gin.Context) {
	req, ok := bindResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summary.Build(req.ExcelOutput, req.FormValues))
}
