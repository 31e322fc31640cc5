// Package tips 页面级提示总线：表单字段交互 -> 短时提示 -> 订阅者（SSE 流）
package tips

import (
	"sync"
	"time"
)

// EventType 事件类型
type EventType string

const (
	EventShow EventType = "show"
	EventHide EventType = "hide"
)

// Event 推送给订阅者的事件
type Event struct {
	Type       EventType `json:"type"`
	Tip        *Tip      `json:"tip,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	At         time.Time `json:"at"`
}

const subscriberBuffer = 16

// Bus 一个页面生命周期内的提示总线
//
// 同一时刻最多显示一条提示；新提示替换旧提示并重置自动隐藏计时。
// 订阅者缓冲满时丢弃事件，不阻塞发布方。
type Bus struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
	current *Tip
	timer   *time.Timer
	gen     uint64
	shown   map[string]bool
	closed  bool
	touched time.Time

	now func() time.Time
}

// NewBus 创建总线
func NewBus() *Bus {
	return &Bus{
		subs:    make(map[int]chan Event),
		shown:   make(map[string]bool),
		now:     time.Now,
		touched: time.Now(),
	}
}

// Subscribe 订阅事件；当前有提示时立即收到一条 show。
// 返回的 cancel 必须调用（可重复调用）；总线关闭后通道会被关闭。
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.touched = b.now()
	if b.current != nil {
		ch <- b.showEvent(*b.current)
	}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Show 显示提示，返回是否已发布（总线关闭时为 false）
func (b *Bus) Show(t Tip) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.showLocked(t)
}

// ShowOnce 同一 ID 在总线生命周期内只显示一次
func (b *Bus) ShowOnce(t Tip) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shown[t.ID] {
		return false
	}
	return b.showLocked(t)
}

func (b *Bus) showLocked(t Tip) bool {
	if b.closed {
		return false
	}
	b.stopTimerLocked()
	b.gen++
	gen := b.gen

	tip := t
	b.current = &tip
	b.shown[t.ID] = true
	b.touched = b.now()
	b.broadcastLocked(b.showEvent(tip))

	b.timer = time.AfterFunc(tip.duration(), func() { b.expire(gen) })
	return true
}

// Hide 隐藏当前提示
func (b *Bus) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hideLocked()
}

func (b *Bus) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// 已被新提示替换或手动隐藏
	if gen != b.gen {
		return
	}
	b.hideLocked()
}

func (b *Bus) hideLocked() {
	b.stopTimerLocked()
	b.gen++
	if b.closed || b.current == nil {
		return
	}
	b.current = nil
	b.touched = b.now()
	b.broadcastLocked(Event{Type: EventHide, At: b.now()})
}

// Current 当前显示的提示
func (b *Bus) Current() (Tip, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Tip{}, false
	}
	return *b.current, true
}

// Subscribers 当前订阅者数量
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close 关闭总线：停止计时并关闭所有订阅通道
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.stopTimerLocked()
	b.current = nil
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// idleSince 最近一次活动时间；有订阅者时 active 为 true
func (b *Bus) idleSince() (last time.Time, active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touched, len(b.subs) > 0
}

func (b *Bus) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Bus) showEvent(t Tip) Event {
	return Event{Type: EventShow, Tip: &t, DurationMs: t.DurationMs(), At: b.now()}
}

func (b *Bus) broadcastLocked(ev Event) {
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
