package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JeeerryZ/simuladordre/internal/mapping"
)

// 工作簿后端
const (
	BackendGraph = "graph"
	BackendLocal = "local"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Workbook WorkbookConfig `toml:"workbook"`
	Graph    GraphConfig    `toml:"graph"`
	LLM      LLMConfig      `toml:"llm"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int      `toml:"port"`
	DevMode      bool     `toml:"dev_mode"`
	AllowOrigins []string `toml:"allow_origins"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	RunLog  bool   `toml:"run_log"`
}

// WorkbookConfig 工作簿与单元格映射配置
type WorkbookConfig struct {
	Backend      string               `toml:"backend"`       // graph | local
	TemplatePath string               `toml:"template_path"` // local 后端模板，为空时使用演示工作簿
	DrivePath    string               `toml:"drive_path"`    // graph 后端：OneDrive 内的文件路径
	InputSheet   string               `toml:"input_sheet"`
	InputRange   string               `toml:"input_range"`
	LabelRange   string               `toml:"label_range"`
	InputLabels  []string             `toml:"input_labels"`
	ExtraOutputs []mapping.OutputCell `toml:"extra_outputs"`
	Charts       []mapping.ChartRange `toml:"charts"`
	Concurrency  int                  `toml:"concurrency"`
	ExportPath   string               `toml:"export_template"` // 导出模板，为空时新建工作簿
}

// GraphConfig Microsoft Graph 配置，凭据通常来自环境变量
type GraphConfig struct {
	TenantID       string `toml:"tenant_id"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	UserID         string `toml:"user_id"`
	BaseURL        string `toml:"base_url"`
	Authority      string `toml:"authority"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLMConfig 对话模型配置
type LLMConfig struct {
	Model          string  `toml:"model"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Temperature    float32 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout Graph 请求超时
func (g GraphConfig) Timeout() time.Duration { return seconds(g.TimeoutSeconds) }

// Timeout 模型请求超时
func (l LLMConfig) Timeout() time.Duration { return seconds(l.TimeoutSeconds) }

func seconds(n int) time.Duration {
	if n <= 0 {
		n = 90
	}
	return time.Duration(n) * time.Second
}

// Outputs 默认输出映射加上配置的额外输出
func (w WorkbookConfig) Outputs() []mapping.OutputCell {
	return append(mapping.DefaultOutputCells(), w.ExtraOutputs...)
}

// ChartRanges 图表区域，未配置时使用默认值
func (w WorkbookConfig) ChartRanges() []mapping.ChartRange {
	if len(w.Charts) == 0 {
		return mapping.DefaultChartRanges()
	}
	return w.Charts
}

// LayoutCheck 标签校验配置
func (w WorkbookConfig) LayoutCheck() mapping.LayoutCheck {
	return mapping.LayoutCheck{Sheet: w.InputSheet, LabelRange: w.LabelRange, Labels: w.InputLabels}
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
	EnvFiles      []string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			RunLog:  true,
		},
		Workbook: WorkbookConfig{
			Backend:     BackendGraph,
			DrivePath:   "Formulário DRE/planilhadre.xlsx",
			InputSheet:  mapping.SheetConcession,
			InputRange:  mapping.DefaultInputRange,
			Concurrency: 4,
		},
		Graph: GraphConfig{
			BaseURL:        "https://graph.microsoft.com/v1.0",
			Authority:      "https://login.microsoftonline.com",
			TimeoutSeconds: 90,
		},
		LLM: LLMConfig{
			Model:          "gemini-2.5-flash",
			Temperature:    0.2,
			TimeoutSeconds: 90,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrDot() string {
	dir, err := GetExeDir()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFrom(exeDirOrDot())
}

// LoadFrom 从指定目录加载配置
//
// 顺序：代码默认值 -> config.toml -> .env（当前目录与配置目录，不覆盖已有变量）-> 环境变量。
func LoadFrom(dir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: filepath.Join(dir, "config.toml")}
	config := DefaultConfig()

	data, err := os.ReadFile(info.Path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case errors.Is(err, os.ErrNotExist):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	info.EnvFiles = loadDotEnv(".env", filepath.Join(dir, ".env"))
	applyEnv(config)

	return config, info, nil
}

// loadDotEnv 加载存在的 .env 文件，返回实际加载的路径
func loadDotEnv(paths ...string) []string {
	var loaded []string
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err == nil {
			loaded = append(loaded, abs)
		}
	}
	return loaded
}

// applyEnv 环境变量覆盖
func applyEnv(c *AppConfig) {
	setString(&c.Graph.TenantID, "AZURE_TENANT_ID")
	setString(&c.Graph.ClientID, "AZURE_CLIENT_ID")
	setString(&c.Graph.ClientSecret, "AZURE_CLIENT_SECRET")
	setString(&c.Graph.UserID, "AZURE_USER_ID")

	setString(&c.LLM.APIKey, "GOOGLE_API_KEY")
	setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	setString(&c.LLM.Model, "SIMULADOR_LLM_MODEL")

	setString(&c.Workbook.Backend, "SIMULADOR_BACKEND")
	setString(&c.Workbook.TemplatePath, "SIMULADOR_TEMPLATE_PATH")
	setString(&c.Data.DataDir, "SIMULADOR_DATA_DIR")

	if v := os.Getenv("SIMULADOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	c.Workbook.Backend = strings.ToLower(strings.TrimSpace(c.Workbook.Backend))
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// MissingCredentials 当前后端缺失的凭据（环境变量名）
//
// 只用于启动提示；请求处理时才真正需要这些值。
func (c *AppConfig) MissingCredentials() []string {
	var missing []string
	if c.Workbook.Backend == BackendGraph {
		if c.Graph.TenantID == "" {
			missing = append(missing, "AZURE_TENANT_ID")
		}
		if c.Graph.ClientID == "" {
			missing = append(missing, "AZURE_CLIENT_ID")
		}
		if c.Graph.ClientSecret == "" {
			missing = append(missing, "AZURE_CLIENT_SECRET")
		}
		if c.Graph.UserID == "" {
			missing = append(missing, "AZURE_USER_ID")
		}
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	return missing
}

// SaveConfig 保存配置到可执行文件同目录的 config.toml
func SaveConfig(config *AppConfig) error {
	return SaveTo(filepath.Join(exeDirOrDot(), "config.toml"), config)
}

// SaveTo 保存配置到指定路径，凭据字段不写入文件
func SaveTo(path string, config *AppConfig) error {
	c := *config
	c.Graph.ClientSecret = ""
	c.LLM.APIKey = ""

	data, err := toml.Marshal(&c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(exeDirOrDot(), dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}
