/*
 * @Description: 进程内事件总线（带固定大小的工作协程池）
 * @Author: 星河
 * @Date: 2025-05-11 20:47:29
 * @LastEditTime: 2025-08-02 09:13:45
 * @LastEditors: 星河
 */
package event

import (
	"log"
	"sync"
)

// Topic 事件主题
type Topic string

const (
	// VideoUploaded 视频分片合并并入库成功后发布
	VideoUploaded Topic = "video.uploaded"
	// VideoStatusChanged 视频状态变化后发布（processing -> active/failed 等）
	VideoStatusChanged Topic = "video.status_changed"
)

// Event 事件载体
type Event struct {
	Topic   Topic
	Payload interface{}
}

// Handler 事件处理函数
type Handler func(e Event)

const (
	workerCount = 4
	queueSize   = 1024
)

// Bus 异步事件总线。Publish 非阻塞，队列满时丢弃事件并记录日志。
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	queue    chan Event
	wg       sync.WaitGroup
	closed   chan struct{}
}

func NewBus() *Bus {
	b := &Bus{
		handlers: make(map[Topic][]Handler),
		queue:    make(chan Event, queueSize),
		closed:   make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Subscribe 注册某一主题的处理函数
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish 非阻塞发布。队列已满时直接丢弃，避免拖慢调用方。
func (b *Bus) Publish(topic Topic, payload interface{}) {
	select {
	case b.queue <- Event{Topic: topic, Payload: payload}:
	default:
		log.Printf("⚠️ 事件队列已满，丢弃事件: %s", topic)
	}
}

// Close 停止接收新事件并等待已入队事件处理完毕
func (b *Bus) Close() {
	close(b.closed)
	close(b.queue)
	b.wg.Wait()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for e := range b.queue {
		b.dispatch(e)
	}
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Topic]...)
	b.mu.RUnlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️ 事件处理器 panic (topic=%s): %v", e.Topic, r)
				}
			}()
			h(e)
		}()
	}
}
