package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// lowPriority события ниже этого приоритета отбрасываются при полном буфере
const lowPriority = 5

// memoryBus доставляет события в одной горутине-диспетчере в порядке публикации
type memoryBus struct {
	subMu  sync.RWMutex
	subs   map[int]*subscriber
	nextID int

	// gate держится на чтение на время отправки в buffer, Close берёт его на запись
	gate   sync.RWMutex
	closed bool
	once   sync.Once
	stop   chan struct{}
	done   chan struct{}
	buffer chan *Envelope

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт шину в памяти с буфером capacity событий
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subs:   make(map[int]*subscriber),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		buffer: make(chan *Envelope, capacity),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.gate.RLock()
	defer mb.gate.RUnlock()
	if mb.closed {
		return fmt.Errorf("publish %s: %w", ev.EventType, ErrClosed)
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	default:
	}

	if ev.Priority < lowPriority {
		mb.dropped.Add(1)
		return nil
	}
	// Важные события ждут места в буфере
	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	case <-mb.stop:
		return fmt.Errorf("publish %s: %w", ev.EventType, ErrClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	cctx, cancel := context.WithCancel(ctx)

	mb.subMu.Lock()
	id := mb.nextID
	mb.nextID++
	mb.subs[id] = &subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	mb.subMu.Unlock()

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close перестаёт принимать события и дожидается доставки буфера. Повторный вызов ничего не делает.
func (mb *memoryBus) Close() error {
	mb.once.Do(func() {
		close(mb.stop)

		mb.gate.Lock()
		mb.closed = true
		close(mb.buffer)
		mb.gate.Unlock()
	})
	<-mb.done
	return nil
}

func (mb *memoryBus) snapshot() []*subscriber {
	mb.subMu.RLock()
	defer mb.subMu.RUnlock()
	subs := make([]*subscriber, 0, len(mb.subs))
	for _, s := range mb.subs {
		subs = append(subs, s)
	}
	return subs
}

func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		for _, s := range mb.snapshot() {
			if s.ctx.Err() != nil || !matchFilter(ev, s.filter) {
				continue
			}
			s.handler(s.ctx, ev)
			mb.consumed.Add(1)
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	return contains(f.Types, ev.EventType) && contains(f.Sources, ev.Source)
}

// contains считает пустой список разрешающим всё
func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.subMu.Lock()
	defer s.bus.subMu.Unlock()
	if sub, ok := s.bus.subs[s.id]; ok {
		sub.cancel()
		delete(s.bus.subs, s.id)
	}
}
