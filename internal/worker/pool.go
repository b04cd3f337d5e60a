package worker

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
)

// ErrClosed возвращается при отправке задачи в закрытый пул
var ErrClosed = errors.New("worker pool closed")

// Task единица фоновой работы. Name используется в логах и трассах.
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Executor принимает задачи «выстрелил и забыл»
type Executor interface {
	Submit(t Task) error
}

// DefaultSize возвращает число логических CPU, при ошибке runtime.NumCPU()
func DefaultSize() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Pool пул воркеров с неограниченной очередью: Submit никогда не блокирует
// вызывающий поток.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	active  int
	closed  bool
	idle    *sync.Cond
	workers sync.WaitGroup

	logger  *logging.Logger
	metrics *metrics.Pool
}

// Option настраивает пул
type Option func(*Pool)

// WithLogger задаёт логгер пула
func WithLogger(l *logging.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithMetrics задаёт метрики пула
func WithMetrics(m *metrics.Pool) Option {
	return func(p *Pool) { p.metrics = m }
}

// NewPool запускает size воркеров; size <= 0 означает DefaultSize()
func NewPool(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{ctx: ctx, cancel: cancel}
	p.cond = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.GetWorkerLogger()
	}
	p.metrics.SetWorkers(size)

	for i := 0; i < size; i++ {
		p.workers.Add(1)
		go p.worker(i)
	}
	p.logger.Info("Пул воркеров запущен: %d воркеров", size)
	return p
}

// Submit ставит задачу в очередь
func (p *Pool) Submit(t Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, t)
	p.metrics.SetQueued(len(p.queue))
	p.cond.Signal()
	return nil
}

// Wait блокирует до опустошения очереди и завершения всех текущих задач
func (p *Pool) Wait() {
	p.mu.Lock()
	for len(p.queue) > 0 || p.active > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Close перестаёт принимать задачи, дожидается выполнения уже поставленных
// и останавливает воркеры
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.workers.Wait()
	p.cancel()
	p.logger.Info("Пул воркеров остановлен")
}

func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return Task{}, false
	}
	t := p.queue[0]
	p.queue[0] = Task{}
	p.queue = p.queue[1:]
	p.active++
	p.metrics.SetQueued(len(p.queue))
	return t, true
}

func (p *Pool) done() {
	p.mu.Lock()
	p.active--
	if p.active == 0 && len(p.queue) == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

func (p *Pool) worker(id int) {
	defer p.workers.Done()
	for {
		t, ok := p.next()
		if !ok {
			return
		}
		p.run(id, t)
		p.done()
	}
}

func (p *Pool) run(id int, t Task) {
	p.metrics.TaskStarted()
	defer p.metrics.TaskFinished()
	defer func() {
		if r := recover(); r != nil {
			p.metrics.TaskPanicked()
			p.logger.Error("Паника в задаче %q (воркер %d): %v\n%s", t.Name, id, r, debug.Stack())
		}
	}()
	t.Run(p.ctx)
}
