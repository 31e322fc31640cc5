// Package api HTTP 接口：计算、对话、汇总、导出、提示流与状态
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/exporter"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/store"
	"github.com/JeeerryZ/simuladordre/internal/tips"
)

// Calculator 计算服务
type Calculator interface {
	Calculate(ctx context.Context, in *model.ScenarioInput) (*model.Output, error)
	Backend() string
}

// Replier 对话中继
type Replier interface {
	Reply(ctx context.Context, messages []model.ChatMessage, excelOutput, formValues any) (string, error)
}

// RunStats 运行日志统计
type RunStats interface {
	Stats(ctx context.Context) (store.RunStats, error)
}

// Deps 处理器依赖；Runs 可为 nil
type Deps struct {
	Calculator Calculator
	Chat       Replier
	Exporter   *exporter.Exporter
	Runs       RunStats
	Tips       *tips.Hub
	Logger     *zap.Logger

	// MissingCredentials 返回缺失的环境变量名，只用于状态接口
	MissingCredentials func() []string
	LLMModel           string
}

// Handler API 处理器
type Handler struct {
	deps      Deps
	logger    *zap.Logger
	downloads *downloadStore
	startedAt time.Time
}

// NewHandler 创建 API 处理器
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Exporter == nil {
		deps.Exporter = exporter.NewExporter("")
	}
	if deps.Tips == nil {
		deps.Tips = tips.NewHub()
	}
	return &Handler{
		deps:      deps,
		logger:    logger.Named("api"),
		downloads: newDownloadStore(),
		startedAt: time.Now(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态与表单选项
	router.GET("/status", h.GetStatus)
	router.GET("/options", h.GetOptions)

	// 计算
	router.POST("/calculate", h.Calculate)

	// AI 对话
	router.POST("/aichat", h.AIChat)

	// 结果汇总
	router.POST("/summary", h.Summary)

	// 结果导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 页面提示
	router.POST("/tips", h.OpenTips)
	router.GET("/tips/:page/stream", h.StreamTips)
	router.POST("/tips/:page", h.PublishTip)
	router.DELETE("/tips/:page", h.CloseTips)
}

// Close 释放提示页面与未下载的导出文件
func (h *Handler) Close() {
	h.deps.Tips.Close()
	h.downloads.purgeAll()
}

// PruneIdle 清理空闲页面与过期下载
func (h *Handler) PruneIdle(now time.Time, maxIdle time.Duration) {
	if n := h.deps.Tips.Prune(now, maxIdle); n > 0 {
		h.logger.Debug("pruned idle tip pages", zap.Int("count", n))
	}
	h.downloads.purgeExpired(now)
}
