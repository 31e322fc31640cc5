package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/api"
	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/exporter"
	"github.com/JeeerryZ/simuladordre/internal/llm"
	"github.com/JeeerryZ/simuladordre/internal/service/chat"
	"github.com/JeeerryZ/simuladordre/internal/service/simulation"
	"github.com/JeeerryZ/simuladordre/internal/store"
)

// dbName 运行日志数据库文件名
const dbName = "simulador.db"

// app 进程内组件
type app struct {
	cfg        *config.AppConfig
	store      *store.Store
	calculator *simulation.Calculator
	relay      *chat.Relay
	exporter   *exporter.Exporter
}

// newApp 按配置组装组件
func newApp(cfg *config.AppConfig, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, exporter: exporter.NewExporter(cfg.Workbook.ExportPath)}

	var runs store.RunLog
	if cfg.Data.RunLog {
		dir, err := config.EnsureDataDir(cfg)
		if err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := store.New(filepath.Join(dir, dbName))
		if err != nil {
			return nil, fmt.Errorf("open run log: %w", err)
		}
		a.store = st
		runs = st
	}

	opener, err := simulation.NewOpener(cfg, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.calculator = simulation.New(opener, simulation.OptionsFromConfig(cfg.Workbook), runs, logger)

	gemini := llm.NewGemini(llm.GeminiOptions{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout(),
	})
	a.relay = chat.NewRelay(gemini, logger.Named("chat"))
	return a, nil
}

// handler 构建 API 处理器
func (a *app) handler(logger *zap.Logger) *api.Handler {
	deps := api.Deps{
		Calculator:         a.calculator,
		Chat:               a.relay,
		Exporter:           a.exporter,
		Logger:             logger,
		MissingCredentials: a.cfg.MissingCredentials,
		LLMModel:           a.cfg.LLM.Model,
	}
	if a.store != nil {
		deps.Runs = a.store
	}
	return api.NewHandler(deps)
}

// Close 关闭运行日志
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
