package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

// 失败时展示给用户的致歉文本
const (
	ApologyAPIError  = "Tive um problema ao processar sua pergunta. Tente novamente em alguns instantes."
	ApologyTransport = "Erro de comunicação com o servidor. Verifique sua conexão e tente novamente."
)

// APIError 服务端返回的错误负载
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("chat api: %s: %s", e.Message, e.Detail)
	}
	return "chat api: " + e.Message
}

// Asker 发送完整对话并取得回复
//
// 服务端拒绝或模型失败返回 *APIError，其他错误视为通信失败。
type Asker interface {
	Ask(ctx context.Context, messages []model.ChatMessage, excelOutput, formValues any) (string, error)
}

// RelayAsker 进程内直接调用 Relay
type RelayAsker struct {
	Relay *Relay
}

// Ask 实现 Asker
func (a RelayAsker) Ask(ctx context.Context, messages []model.ChatMessage, excelOutput, formValues any) (string, error) {
	reply, err := a.Relay.Reply(ctx, messages, excelOutput, formValues)
	if err != nil {
		return "", &APIError{Status: http.StatusInternalServerError, Message: "Erro ao processar IA", Detail: err.Error()}
	}
	return reply, nil
}

// HTTPAsker 通过 POST /api/aichat 调用远端服务
type HTTPAsker struct {
	Endpoint string
	Client   *http.Client
}

// Ask 实现 Asker
func (a HTTPAsker) Ask(ctx context.Context, messages []model.ChatMessage, excelOutput, formValues any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"messages":    messages,
		"excelOutput": excelOutput,
		"formValues":  formValues,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var body struct {
		Reply  *string `json:"reply"`
		Error  string  `json:"error"`
		Detail string  `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("decode chat response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || body.Error != "" || body.Reply == nil {
		msg := body.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg, Detail: body.Detail}
	}
	return *body.Reply, nil
}

// Entry 对话记录中的一条
type Entry struct {
	model.ChatMessage
	Failed bool `json:"failed,omitempty"`
}

// Session 单个用户的对话记录
//
// 失败的一轮（用户消息与致歉回复）保留用于展示，但不再作为上下文发送给模型。
type Session struct {
	asker Asker

	mu          sync.Mutex
	entries     []Entry
	excelOutput any
	formValues  any
}

// NewSession 创建对话
func NewSession(asker Asker, excelOutput, formValues any) *Session {
	return &Session{asker: asker, excelOutput: excelOutput, formValues: formValues}
}

// SetContext 更新模拟上下文
func (s *Session) SetContext(excelOutput, formValues any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excelOutput = excelOutput
	s.formValues = formValues
}

// Send 发送一条用户消息，返回展示给用户的回复（失败时为致歉文本）与原始错误
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyConversation
	}

	s.mu.Lock()
	user := Entry{ChatMessage: model.ChatMessage{Role: model.RoleUser, Content: text}}
	s.entries = append(s.entries, user)
	idx := len(s.entries) - 1
	history := s.contextLocked()
	excelOutput, formValues := s.excelOutput, s.formValues
	s.mu.Unlock()

	reply, err := s.asker.Ask(ctx, history, excelOutput, formValues)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		apology := ApologyTransport
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apology = ApologyAPIError
		}
		s.entries[idx].Failed = true
		s.entries = append(s.entries, Entry{
			ChatMessage: model.ChatMessage{Role: model.RoleAssistant, Content: apology},
			Failed:      true,
		})
		return apology, err
	}
	s.entries = append(s.entries, Entry{ChatMessage: model.ChatMessage{Role: model.RoleAssistant, Content: reply}})
	return reply, nil
}

// Transcript 完整对话记录（含失败轮次）
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Context 将要发送给模型的消息
func (s *Session) Context() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextLocked()
}

func (s *Session) contextLocked() []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Failed {
			continue
		}
		out = append(out, e.ChatMessage)
	}
	return out
}
