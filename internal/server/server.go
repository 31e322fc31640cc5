// Package server HTTP 服务器：中间件、路由挂载与后台清理
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/api"
	"github.com/JeeerryZ/simuladordre/internal/config"
)

// 空闲清理
const (
	janitorInterval = time.Minute
	tipPageMaxIdle  = 30 * time.Minute
)

// devFrontend 开发模式下前端开发服务器地址
const devFrontend = "http://localhost:3000"

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	handler    *api.Handler
	logger     *zap.Logger
	httpServer *http.Server
	stop       chan struct{}
	done       chan struct{}
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, handler *api.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:  gin.New(),
		handler: handler,
		logger:  logger.Named("http"),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.setupRoutes(devMode, cfg.Server.AllowOrigins)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.janitor()
	return s
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool, allowOrigins []string) {
	s.router.Use(requestLogger(s.logger), gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error("panic recovered", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erro interno"})
	}))

	// CORS
	s.router.Use(func(c *gin.Context) {
		if origin := allowedOrigin(allowOrigins, c.GetHeader("Origin")); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	apiGroup := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(apiGroup)
	}

	if devMode {
		// 开发模式：页面请求转给前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Rota não encontrada"})
				return
			}
			c.Redirect(http.StatusTemporaryRedirect, devFrontend+c.Request.URL.Path)
		})
		return
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rota não encontrada"})
	})
}

// allowedOrigin 未配置时允许任意来源
func allowedOrigin(allow []string, origin string) string {
	if len(allow) == 0 || slices.Contains(allow, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(allow, origin) {
		return origin
	}
	return ""
}

// requestLogger zap 请求日志
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn("request", fields...)
		case c.Request.Method == http.MethodOptions:
			logger.Debug("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

// janitor 定期清理空闲提示页面与过期下载
func (s *Server) janitor() {
	defer close(s.done)
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.handler.PruneIdle(now, tipPageMaxIdle)
		}
	}
}

// Shutdown 停止接收请求并释放资源
//
// 提示总线先于 HTTP 服务关闭，SSE 连接随之结束。
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	<-s.done
	s.handler.Close()
	return s.httpServer.Shutdown(ctx)
}
