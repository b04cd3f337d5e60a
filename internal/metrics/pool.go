package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pool метрики пула воркеров; nil-приёмник допустим
type Pool struct {
	workers prometheus.Gauge
	busy    prometheus.Gauge
	queued  prometheus.Gauge
	panics  prometheus.Counter
}

// NewPool создаёт метрики пула и регистрирует их в reg
func NewPool(reg prometheus.Registerer) *Pool {
	p := &Pool{
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Размер пула воркеров.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Воркеры, выполняющие задачу.",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "pool",
			Name:      "queued_tasks",
			Help:      "Задачи в очереди пула.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "pool",
			Name:      "task_panics_total",
			Help:      "Задачи, завершившиеся паникой.",
		}),
	}
	reg.MustRegister(p.workers, p.busy, p.queued, p.panics)
	return p
}

func (p *Pool) SetWorkers(n int) {
	if p == nil {
		return
	}
	p.workers.Set(float64(n))
}

func (p *Pool) SetQueued(n int) {
	if p == nil {
		return
	}
	p.queued.Set(float64(n))
}

func (p *Pool) TaskStarted() {
	if p == nil {
		return
	}
	p.busy.Inc()
}

func (p *Pool) TaskFinished() {
	if p == nil {
		return
	}
	p.busy.Dec()
}

func (p *Pool) TaskPanicked() {
	if p == nil {
		return
	}
	p.panics.Inc()
}
