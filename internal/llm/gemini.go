// Package llm 对话模型客户端
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

// ErrMissingAPIKey 未配置模型 API Key
var ErrMissingAPIKey = errors.New("llm api key not configured")

// ErrEmptyReply 模型返回空内容
var ErrEmptyReply = errors.New("llm returned an empty reply")

// Completer 根据系统提示与对话历史生成一条回复
type Completer interface {
	Complete(ctx context.Context, system string, history []model.ChatMessage) (string, error)
}

// GeminiOptions Gemini 客户端配置
type GeminiOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Gemini 基于 google.golang.org/genai 的 Completer
//
// genai 客户端在第一次调用时创建，缺少 API Key 时返回 ErrMissingAPIKey。
type Gemini struct {
	opts GeminiOptions

	once sync.Once
	cli  *genai.Client
	err  error
}

var _ Completer = (*Gemini)(nil)

// NewGemini 创建 Gemini 客户端
func NewGemini(opts GeminiOptions) *Gemini {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	return &Gemini{opts: opts}
}

// Name 模型名称
func (g *Gemini) Name() string { return "Gemini:" + g.opts.Model }

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	if strings.TrimSpace(g.opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     g.opts.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.opts.HTTPClient,
		}
		if g.opts.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.opts.BaseURL}
		}
		g.cli, g.err = genai.NewClient(ctx, cfg)
		if g.err != nil {
			g.err = fmt.Errorf("failed to create genai client: %w", g.err)
		}
	})
	return g.cli, g.err
}

// Complete 发送一次 generateContent 请求，不重试、不流式
func (g *Gemini) Complete(ctx context.Context, system string, history []model.ChatMessage) (string, error) {
	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.opts.Temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := cli.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
