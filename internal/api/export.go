package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/exporter"
)

const downloadTTL = 10 * time.Minute

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Export 直接下载结果工作簿
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	req, ok := bindResult(c)
	if !ok {
		return
	}

	at := time.Now()
	file, err := h.deps.Exporter.Export(req.ExcelOutput, req.FormValues, exporter.ExportOptions{GeneratedAt: at})
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao exportar", "detail": err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", exporter.ContentDisposition(at))
	c.Header("Content-Type", exporter.ContentType)
	if err := file.Write(c.Writer); err != nil {
		h.logger.Error("write export failed", zap.Error(err))
	}
}

// ExportStream 导出结果工作簿（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	req, ok := bindResult(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming não suportado"})
		return
	}
	setSSEHeaders(c)

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{Type: "start", Message: "Iniciando exportação", Data: map[string]any{}, Timestamp: time.Now()})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{Type: "progress", Message: string(p.Stage), Data: map[string]any{"percent": p.Percent}, Timestamp: time.Now()})
	}

	at := time.Now()
	file, err := h.deps.Exporter.Export(req.ExcelOutput, req.FormValues, exporter.ExportOptions{GeneratedAt: at, Progress: progressFn})
	if err != nil {
		send(exportProgressEvent{Type: "error", Message: "Erro ao exportar: " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("simulador_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		send(exportProgressEvent{Type: "error", Message: "Erro ao gravar arquivo: " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, at, downloadTTL)
	send(exportProgressEvent{
		Type:    "done",
		Message: "Exportação concluída",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": "/api/export/download/" + token,
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link de download expirado"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Arquivo exportado não encontrado"})
		return
	}

	c.Header("Content-Disposition", exporter.ContentDisposition(item.generatedAt))
	c.Header("Content-Type", exporter.ContentType)
	c.File(item.filePath)
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
