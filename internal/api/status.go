package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Backend            string          `json:"backend"`
	LLMModel           string          `json:"llmModel,omitempty"`
	MissingCredentials []string        `json:"missingCredentials"`
	Runs               *store.RunStats `json:"runs,omitempty"`
	TipPages           int             `json:"tipPages"`
	UptimeSeconds      int64           `json:"uptimeSeconds"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Backend:            h.deps.Calculator.Backend(),
		LLMModel:           h.deps.LLMModel,
		MissingCredentials: []string{},
		TipPages:           h.deps.Tips.Len(),
		UptimeSeconds:      int64(time.Since(h.startedAt).Seconds()),
	}
	if h.deps.MissingCredentials != nil {
		if missing := h.deps.MissingCredentials(); len(missing) > 0 {
			resp.MissingCredentials = missing
		}
	}
	if h.deps.Runs != nil {
		st, err := h.deps.Runs.Stats(c.Request.Context())
		if err != nil {
			h.logger.Warn("load run stats failed", zap.Error(err))
		} else {
			resp.Runs = &st
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SectorOption 部门选项
type SectorOption struct {
	Value model.Sector `json:"value"`
	Label string       `json:"label"`
}

// OptionsResponse 表单下拉选项
type OptionsResponse struct {
	Regions                 []string       `json:"regioes"`
	ConcessionBillingModels []string       `json:"modelosCobrancaConcessao"`
	StartYears              []string       `json:"anosInicio"`
	InitialBillingModels    []string       `json:"modelosIniciaisCobranca"`
	TransitionYears         []string       `json:"anosTransicao"`
	BillingTypologies       []string       `json:"tipologiasFaturamento"`
	AveragePriceBases       []string       `json:"basesPrecoMedio"`
	Sectors                 []SectorOption `json:"setores"`
}

// GetOptions 表单选项
// GET /api/options
func (h *Handler) GetOptions(c *gin.Context) {
	sectors := make([]SectorOption, 0, len(model.Sectors))
	for _, s := range model.Sectors {
		sectors = append(sectors, SectorOption{Value: s, Label: s.Label()})
	}
	c.JSON(http.StatusOK, OptionsResponse{
		Regions:                 model.Regions,
		ConcessionBillingModels: model.ConcessionBillingModels,
		StartYears:              model.StartYears(),
		InitialBillingModels:    model.InitialBillingModels,
		TransitionYears:         model.TransitionYears(),
		BillingTypologies:       model.BillingTypologies,
		AveragePriceBases:       model.AveragePriceBases,
		Sectors:                 sectors,
	})
}
