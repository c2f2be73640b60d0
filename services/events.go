package services

import (
	"sync"

	"github.com/GrainArc/RoadMesh/Intersection"
)

// JunctionEvent 单个路口处理完成的通知
type JunctionEvent struct {
	Type    string                `json:"type"` // junction / summary
	Region  string                `json:"region"`
	Outcome *Intersection.Outcome `json:"outcome,omitempty"`
	Step    string                `json:"step,omitempty"`
	Error   string                `json:"error,omitempty"`
	Message string                `json:"message,omitempty"`
}

// Broadcaster 把路口事件分发给订阅者，订阅者处理不过来时丢弃
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan JunctionEvent
}

// NewBroadcaster 创建
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan JunctionEvent)}
}

// Subscribe 订阅，返回事件通道和取消函数
func (b *Broadcaster) Subscribe(buffer int) (<-chan JunctionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan JunctionEvent, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish 非阻塞发送
func (b *Broadcaster) Publish(e JunctionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers 当前订阅数
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
