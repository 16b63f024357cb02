package server

import "sync"

// Hub 一对多广播：Ticker 是唯一发布者，每个连接的发送端是一个订阅者。
// 发布永不阻塞，订阅者队列满时丢弃最旧的快照，只保证最终能看到最新的状态
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewHub buffer 为每个订阅者的队列容量
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription 单个订阅者的有界队列，由订阅者独占消费
type Subscription struct {
	hub  *Hub
	ch   chan []byte
	once sync.Once
}

// Subscribe 只会收到订阅之后发布的快照
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{hub: h, ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// C 快照通道；订阅关闭后通道被关闭
func (s *Subscription) C() <-chan []byte { return s.ch }

// Close 取消订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Publish 把快照投递给所有订阅者，返回因积压被丢弃的旧快照数
func (h *Hub) Publish(b []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for s := range h.subs {
		for {
			select {
			case s.ch <- b:
			default:
				select {
				case <-s.ch:
					dropped++
				default:
				}
				continue
			}
			break
		}
	}
	return dropped
}

// Len 当前订阅者数量
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
