// Package chat 对话中继：系统提示 + 模拟上下文 + 对话历史 -> 模型回复
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/llm"
	"github.com/JeeerryZ/simuladordre/internal/model"
)

// ErrEmptyConversation 过滤后没有可转发的消息
var ErrEmptyConversation = errors.New("conversation has no user or assistant messages")

// Relay 对话中继，无状态
type Relay struct {
	llm    llm.Completer
	logger *zap.Logger
}

// NewRelay 创建中继
func NewRelay(c llm.Completer, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{llm: c, logger: logger}
}

// Reply 转发一次对话，返回模型的单条回复
func (r *Relay) Reply(ctx context.Context, messages []model.ChatMessage, excelOutput, formValues any) (string, error) {
	history := FilterMessages(messages)
	if len(history) == 0 {
		return "", ErrEmptyConversation
	}

	system, err := BuildSystemPrompt(excelOutput, formValues)
	if err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := r.llm.Complete(ctx, system, history)
	if err != nil {
		r.logger.Error("chat completion failed",
			zap.Int("messages", len(history)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	r.logger.Info("chat completion",
		zap.Int("messages", len(history)),
		zap.Int("reply_chars", len([]rune(reply))),
		zap.Duration("elapsed", time.Since(start)))
	return reply, nil
}

// FilterMessages 只保留 user / assistant 且内容非空的消息
func FilterMessages(messages []model.ChatMessage) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
