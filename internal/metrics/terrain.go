package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Terrain метрики менеджера ландшафта. Все методы допускают nil-приёмник,
// чтобы менеджер работал без метрик.
type Terrain struct {
	chunks        prometheus.Counter
	zones         prometheus.Counter
	submitted     *prometheus.CounterVec
	completed     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	staleMeshes   prometheus.Counter
	uploads       prometheus.Counter
	releases      prometheus.Counter
	pending       *prometheus.GaugeVec
	taskDuration  *prometheus.HistogramVec
	drainDuration prometheus.Histogram
}

// Виды фоновых задач
const (
	TaskGenerate = "generate"
	TaskMesh     = "mesh"
)

// NewTerrain создаёт метрики и регистрирует их в reg
func NewTerrain(reg prometheus.Registerer) *Terrain {
	t := &Terrain{
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "chunks_instantiated_total",
			Help:      "Количество созданных чанков.",
		}),
		zones: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "zones_generated_total",
			Help:      "Зоны, чьи блоки получены главным потоком.",
		}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "tasks_submitted_total",
			Help:      "Отправленные в пул задачи по видам.",
		}, []string{"kind"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "tasks_completed_total",
			Help:      "Результаты задач, принятые главным потоком.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "tasks_failed_total",
			Help:      "Задачи, завершившиеся паникой.",
		}, []string{"kind"}),
		staleMeshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "stale_meshes_dropped_total",
			Help:      "Меши, вытесненные более поздним запросом того же чанка.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "mesh_uploads_total",
			Help:      "Загрузки мешей в бэкенд отрисовки.",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "mesh_releases_total",
			Help:      "Освобождения мешей при выходе зоны из радиуса.",
		}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "tasks_pending",
			Help:      "Задачи, отправленные, но ещё не принятые главным потоком.",
		}, []string{"kind"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "task_duration_seconds",
			Help:      "Длительность выполнения фоновых задач.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"kind"}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "terrain",
			Name:      "drain_duration_seconds",
			Help:      "Длительность разбора результатов за тик.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}

	reg.MustRegister(t.chunks, t.zones, t.submitted, t.completed, t.failed, t.staleMeshes,
		t.uploads, t.releases, t.pending, t.taskDuration, t.drainDuration)
	return t
}

func (t *Terrain) ChunkInstantiated() {
	if t == nil {
		return
	}
	t.chunks.Inc()
}

func (t *Terrain) ZoneGenerated() {
	if t == nil {
		return
	}
	t.zones.Inc()
}

// TaskSubmitted учитывает отправку задачи вида kind
func (t *Terrain) TaskSubmitted(kind string) {
	if t == nil {
		return
	}
	t.submitted.WithLabelValues(kind).Inc()
	t.pending.WithLabelValues(kind).Inc()
}

// TaskCompleted учитывает приём результата задачи и её длительность
func (t *Terrain) TaskCompleted(kind string, d time.Duration) {
	if t == nil {
		return
	}
	t.completed.WithLabelValues(kind).Inc()
	t.pending.WithLabelValues(kind).Dec()
	t.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// TaskFailed учитывает задачу, результат которой не будет получен
func (t *Terrain) TaskFailed(kind string) {
	if t == nil {
		return
	}
	t.failed.WithLabelValues(kind).Inc()
	t.pending.WithLabelValues(kind).Dec()
}

// StaleMeshDropped учитывает результат меша, вытесненный более поздним запросом
func (t *Terrain) StaleMeshDropped() {
	if t == nil {
		return
	}
	t.staleMeshes.Inc()
	t.pending.WithLabelValues(TaskMesh).Dec()
}

func (t *Terrain) MeshUploaded() {
	if t == nil {
		return
	}
	t.uploads.Inc()
}

func (t *Terrain) MeshReleased() {
	if t == nil {
		return
	}
	t.releases.Inc()
}

func (t *Terrain) ObserveDrain(d time.Duration) {
	if t == nil {
		return
	}
	t.drainDuration.Observe(d.Seconds())
}
