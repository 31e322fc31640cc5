package tips

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPageNotFound 页面不存在或已关闭
var ErrPageNotFound = errors.New("tip page not found")

// Hub 按页面 ID 管理提示总线
type Hub struct {
	mu    sync.Mutex
	buses map[string]*Bus
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{buses: make(map[string]*Bus)}
}

// Open 打开新页面，返回页面 ID
func (h *Hub) Open() (string, *Bus) {
	id := uuid.NewString()
	b := NewBus()

	h.mu.Lock()
	h.buses[id] = b
	h.mu.Unlock()
	return id, b
}

// Get 获取页面总线
func (h *Hub) Get(id string) (*Bus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buses[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	return b, nil
}

// CloseBus 关闭页面
func (h *Hub) CloseBus(id string) error {
	h.mu.Lock()
	b, ok := h.buses[id]
	delete(h.buses, id)
	h.mu.Unlock()
	if !ok {
		return ErrPageNotFound
	}
	b.Close()
	return nil
}

// Len 打开的页面数
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buses)
}

// Prune 关闭空闲超过 maxIdle 且没有订阅者的页面，返回关闭数量
func (h *Hub) Prune(now time.Time, maxIdle time.Duration) int {
	h.mu.Lock()
	var stale []*Bus
	for id, b := range h.buses {
		last, active := b.idleSince()
		if !active && now.Sub(last) > maxIdle {
			stale = append(stale, b)
			delete(h.buses, id)
		}
	}
	h.mu.Unlock()

	for _, b := range stale {
		b.Close()
	}
	return len(stale)
}

// Close 关闭全部页面
func (h *Hub) Close() {
	h.mu.Lock()
	buses := h.buses
	h.buses = make(map[string]*Bus)
	h.mu.Unlock()

	for _, b := range buses {
		b.Close()
	}
}
