// Package graph 通过 Microsoft Graph 的工作簿会话接口读写 OneDrive 中的 Excel 工作簿
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/JeeerryZ/simuladordre/internal/workbook"
)

// Scope 应用权限范围
const Scope = "https://graph.microsoft.com/.default"

// ErrMissingCredentials 未配置 Graph 凭据
var ErrMissingCredentials = errors.New("graph credentials not configured")

// APIError Graph 返回的错误
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph: HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("graph: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// Options 客户端配置
type Options struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	UserID       string
	DrivePath    string
	BaseURL      string // 默认 https://graph.microsoft.com/v1.0
	Authority    string // 默认 https://login.microsoftonline.com
	Timeout      time.Duration
	HTTPClient   *http.Client // 底层传输，测试时替换
}

func (o Options) missing() []string {
	var m []string
	for _, f := range []struct{ name, value string }{
		{"tenant_id", o.TenantID},
		{"client_id", o.ClientID},
		{"client_secret", o.ClientSecret},
		{"user_id", o.UserID},
		{"drive_path", o.DrivePath},
	} {
		if strings.TrimSpace(f.value) == "" {
			m = append(m, f.name)
		}
	}
	return m
}

// Client 工作簿会话工厂，实现 workbook.Opener
type Client struct {
	opts        Options
	http        *http.Client
	workbookURL string
	missing     []string
}

var _ workbook.Opener = (*Client)(nil)

// New 创建客户端
//
// 凭据缺失不会报错，直到 Open 时才返回 ErrMissingCredentials。
// 令牌由 clientcredentials 的 TokenSource 缓存并在过期前刷新。
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if opts.Authority == "" {
		opts.Authority = "https://login.microsoftonline.com"
	}

	c := &Client{opts: opts, missing: opts.missing()}
	c.workbookURL = fmt.Sprintf("%s/users/%s/drive/root:/%s:/workbook",
		strings.TrimRight(opts.BaseURL, "/"), url.PathEscape(opts.UserID), url.PathEscape(opts.DrivePath))

	if len(c.missing) > 0 {
		return c
	}

	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(opts.Authority, "/"), url.PathEscape(opts.TenantID)),
		Scopes:       []string{Scope},
	}
	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	c.http = cc.Client(ctx)
	c.http.Timeout = opts.Timeout
	return c
}

// Name 后端名称
func (c *Client) Name() string { return "graph:" + c.opts.DrivePath }

// WorkbookURL 工作簿资源地址
func (c *Client) WorkbookURL() string { return c.workbookURL }

// Open 创建持久化会话（persistChanges=true），每次计算一个新会话
func (c *Client) Open(ctx context.Context) (workbook.Session, error) {
	if len(c.missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(c.missing, ", "))
	}

	var created struct {
		ID string `json:"id"`
	}
	body := map[string]bool{"persistChanges": true}
	if err := c.do(ctx, http.MethodPost, c.workbookURL+"/createSession", "", body, &created); err != nil {
		return nil, fmt.Errorf("create workbook session: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create workbook session: empty session id")
	}
	return &session{c: c, id: created.ID}, nil
}

func (c *Client) rangeURL(sheet, address string) string {
	sheet = strings.ReplaceAll(sheet, "'", "''")
	return fmt.Sprintf("%s/worksheets('%s')/range(address='%s')",
		c.workbookURL, url.PathEscape(sheet), url.PathEscape(address))
}

func (c *Client) do(ctx context.Context, method, endpoint, sessionID string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("workbook-session-id", sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
		return apiErr
	}
	msg := strings.TrimSpace(string(data))
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}
