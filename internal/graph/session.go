package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// session 一个 Graph 工作簿会话
type session struct {
	c  *Client
	id string

	closeOnce sync.Once
	closeErr  error
}

type rangeValues struct {
	Values [][]any `json:"values"`
}

// WriteRange PATCH 区域值；nil 序列化为 null，Graph 保持该单元格不变
func (s *session) WriteRange(ctx context.Context, sheet, address string, values [][]any) error {
	if err := s.c.do(ctx, http.MethodPatch, s.c.rangeURL(sheet, address), s.id, rangeValues{Values: values}, nil); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, address, err)
	}
	return nil
}

// ReadRange GET 区域值
func (s *session) ReadRange(ctx context.Context, sheet, address string) ([][]any, error) {
	var out rangeValues
	if err := s.c.do(ctx, http.MethodGet, s.c.rangeURL(sheet, address), s.id, nil, &out); err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, address, err)
	}
	return out.Values, nil
}

// Close 关闭会话，可重复调用
func (s *session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		err := s.c.do(ctx, http.MethodPost, s.c.workbookURL+"/closeSession", s.id, struct{}{}, nil)
		if err != nil {
			s.closeErr = fmt.Errorf("close workbook session: %w", err)
		}
	})
	return s.closeErr
}
