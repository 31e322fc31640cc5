package simulation

import (
	"fmt"
	"net/http"

	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/graph"
	"github.com/JeeerryZ/simuladordre/internal/workbook"
	"github.com/JeeerryZ/simuladordre/internal/workbook/demo"
)

// NewOpener 按配置选择工作簿后端
//
// local 后端未配置模板时使用演示工作簿；graph 后端的凭据在 Open 时才检查。
func NewOpener(cfg *config.AppConfig, httpClient *http.Client) (workbook.Opener, error) {
	switch cfg.Workbook.Backend {
	case config.BackendLocal:
		if cfg.Workbook.TemplatePath != "" {
			return workbook.NewLocal(cfg.Workbook.TemplatePath)
		}
		f, err := demo.Template()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return workbook.NewLocalFromFile(f)
	case config.BackendGraph, "":
		return graph.New(graph.Options{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			UserID:       cfg.Graph.UserID,
			DrivePath:    cfg.Workbook.DrivePath,
			BaseURL:      cfg.Graph.BaseURL,
			Authority:    cfg.Graph.Authority,
			Timeout:      cfg.Graph.Timeout(),
			HTTPClient:   httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown workbook backend %q", cfg.Workbook.Backend)
	}
}
