package terrain

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/worker"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/annel0/voxelcore/internal/worldgen"
)

// flatGenerator заполняет камнем всё до уровня level включительно
type flatGenerator struct {
	level int
}

func (g flatGenerator) GenerateZone(zone world.Key, chunks []*world.Chunk) {
	for _, c := range chunks {
		grid := new(world.Grid)
		for x := 0; x < world.SizeX; x++ {
			for z := 0; z < world.SizeZ; z++ {
				for y := 0; y <= g.level; y++ {
					grid.Put(x, y, z, block.Stone)
				}
			}
		}
		c.Load(grid)
	}
}

// recordingExecutor копит задачи и выполняет их только по RunAll
type recordingExecutor struct {
	mu        sync.Mutex
	queued    []worker.Task
	submitted []string
}

func (r *recordingExecutor) Submit(t worker.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, t)
	r.submitted = append(r.submitted, t.Name)
	return nil
}

func (r *recordingExecutor) RunAll() {
	for {
		r.mu.Lock()
		tasks := r.queued
		r.queued = nil
		r.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, t := range tasks {
			t.Run(context.Background())
		}
	}
}

func (r *recordingExecutor) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, name := range r.submitted {
		if strings.HasPrefix(name, prefix) {
			n++
		}
	}
	return n
}

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("terrain", &bytes.Buffer{}, logging.ERROR)
}

func newTestManager(radius int, exec worker.Executor, backend RenderBackend, opts ...Option) *Manager {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return NewManager(config.TerrainConfig{ZoneRadius: radius}, exec, flatGenerator{level: 10}, backend, opts...)
}

// settle выполняет задачи и разбирает результаты, пока всё не станет видимым
func settle(m *Manager, exec *recordingExecutor) {
	for i := 0; i < 3; i++ {
		exec.RunAll()
		m.DrainCompletedWork(context.Background())
	}
}

func TestZoneOrigin(t *testing.T) {
	assert.Equal(t, vec.Vec2{X: 0, Z: 0}, ZoneOrigin(vec.Vec3Float{X: 10, Y: 300, Z: 63.9}))
	assert.Equal(t, vec.Vec2{X: -64, Z: 64}, ZoneOrigin(vec.Vec3Float{X: -0.5, Z: 64}))
	assert.Equal(t, vec.Vec2{X: -128, Z: 0}, ZoneOrigin(vec.Vec3Float{X: -65, Z: 1}))
}

func TestZoneKeysAround(t *testing.T) {
	keys := ZoneKeysAround(vec.Vec2{}, 1)
	require.Len(t, keys, 9)
	assert.Equal(t, world.PackKey(-64, -64), keys[0])
	assert.Equal(t, world.PackKey(0, 0), keys[4])
	assert.Equal(t, world.PackKey(64, 64), keys[8])

	assert.Len(t, ZoneKeysAround(vec.Vec2{}, 3), 49)
	assert.Len(t, ZoneKeysAround(vec.Vec2{}, 0), 1)
}

func TestZoneChunkKeys(t *testing.T) {
	keys := zoneChunkKeys(world.PackKey(-64, 0))
	require.Len(t, keys, 16)
	assert.Equal(t, world.PackKey(-64, 0), keys[0])
	assert.Equal(t, world.PackKey(-16, 48), keys[15])
	for _, k := range keys {
		assert.Equal(t, world.PackKey(-64, 0), zoneOfChunk(k))
	}
}

func TestLoadInitialAreaInstantiatesAndLinks(t *testing.T) {
	exec := &recordingExecutor{}
	m := newTestManager(1, exec, nil)

	assert.Equal(t, 9, m.LoadInitialArea(vec.Vec3Float{X: 5, Z: 5}))
	assert.Equal(t, 9, exec.Count("generate"))
	assert.Equal(t, 144, m.Stats().Chunks)
	assert.True(t, m.IsZoneGenerated(world.PackKey(-64, -64)))
	assert.False(t, m.IsZoneReady(world.PackKey(-64, -64)))

	c, ok := m.ChunkAt(0, 0)
	require.True(t, ok)
	n, ok := c.Neighbor(world.XNeg)
	require.True(t, ok)
	assert.Equal(t, world.PackKey(-16, 0), n)

	// зона уже отправлена, повторная загрузка ничего не делает
	assert.Equal(t, 0, m.LoadInitialArea(vec.Vec3Float{X: 5, Z: 5}))
	assert.Equal(t, 9, exec.Count("generate"))

	edge, ok := m.ChunkAt(112, 112)
	require.True(t, ok)
	_, ok = edge.Neighbor(world.XPos)
	assert.False(t, ok)
}

func TestDrainHasOneTickLatency(t *testing.T) {
	backend := &NullBackend{}
	m := newTestManager(0, worker.Inline{}, backend)

	m.LoadInitialArea(vec.Vec3Float{})
	report := m.DrainCompletedWork(context.Background())
	assert.Equal(t, 1, report.Zones)
	assert.Equal(t, 0, report.Meshes)
	assert.Equal(t, 0, backend.Uploads())
	assert.Equal(t, 16, m.Stats().PendingMeshes)

	report = m.DrainCompletedWork(context.Background())
	assert.Equal(t, 16, report.Meshes)
	assert.Equal(t, 16, backend.Uploads())
	assert.Equal(t, 16, backend.Resident())

	stats := m.Stats()
	assert.Equal(t, 0, stats.PendingMeshes)
	assert.Equal(t, 0, stats.PendingGenerations)
	assert.Equal(t, 16, stats.MeshResident)
	assert.Equal(t, 1, stats.ReadyZones)
}

func TestTryExpandAcrossZones(t *testing.T) {
	exec := &recordingExecutor{}
	backend := &NullBackend{}
	m := newTestManager(1, exec, backend)

	start := vec.Vec3Float{X: 0, Y: 150, Z: 0}
	m.LoadInitialArea(start)
	settle(m, exec)
	require.Equal(t, 144, backend.Uploads())
	require.Equal(t, 144, m.Stats().MeshResident)

	// та же зона
	assert.False(t, m.TryExpand(start, vec.Vec3Float{X: 63, Y: 150, Z: 10}))
	assert.Equal(t, 9, exec.Count("generate"))

	moved := vec.Vec3Float{X: 64, Y: 150, Z: 0}
	require.True(t, m.TryExpand(start, moved))

	// столбец зон x=-64 ушёл из радиуса, x=128 генерируется впервые
	assert.Equal(t, 48, backend.Releases())
	assert.Equal(t, 12, exec.Count("generate"))
	assert.True(t, m.IsZoneGenerated(world.PackKey(128, 0)))
	c, ok := m.ChunkAt(-64, 0)
	require.True(t, ok, "блоки ушедших зон остаются в памяти")
	assert.False(t, c.HasMesh())

	meshesBefore := exec.Count("mesh")
	settle(m, exec)
	// 48 новых чанков и 12 готовых соседей на границе x=112
	assert.Equal(t, meshesBefore+60, exec.Count("mesh"))
	assert.Len(t, m.VisibleChunks(moved), 144)

	// возврат: старые зоны получают меши заново без генерации
	require.True(t, m.TryExpand(moved, start))
	assert.Equal(t, 12, exec.Count("generate"))
	assert.Equal(t, 96, backend.Releases())
	settle(m, exec)
	assert.Len(t, m.VisibleChunks(start), 144)
	c, _ = m.ChunkAt(-64, 0)
	assert.True(t, c.HasMesh())
}

func TestTryExpandSkipsZonesStillGenerating(t *testing.T) {
	exec := &recordingExecutor{}
	m := newTestManager(0, exec, nil)

	a, b := vec.Vec3Float{}, vec.Vec3Float{X: 64}
	m.LoadInitialArea(a)
	require.True(t, m.TryExpand(a, b))
	require.True(t, m.TryExpand(b, a))

	// зона a ещё не принята: ни повторной генерации, ни меширования
	assert.Equal(t, 2, exec.Count("generate"))
	assert.Equal(t, 0, exec.Count("mesh"))
}

func TestWorldBlockAccess(t *testing.T) {
	exec := &recordingExecutor{}
	m := newTestManager(1, exec, nil)
	m.LoadInitialArea(vec.Vec3Float{})
	settle(m, exec)

	b, err := m.GetBlock(5, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, block.Stone, b)

	b, err = m.GetBlock(-1, 11, -1)
	require.NoError(t, err)
	assert.Equal(t, block.Empty, b)

	for _, y := range []int{-1, world.SizeY, 1000} {
		b, err = m.GetBlock(0, y, 0)
		require.NoError(t, err)
		assert.Equal(t, block.Empty, b)
	}

	_, err = m.GetBlock(500, 10, 0)
	assert.ErrorIs(t, err, ErrNoChunk)
	assert.ErrorIs(t, m.SetBlock(500, 10, 0, block.Dirt), ErrNoChunk)
	assert.NoError(t, m.SetBlock(0, -5, 0, block.Dirt))

	require.NoError(t, m.SetBlock(-60, 20, 3, block.Ice))
	b, err = m.GetBlock(-60, 20, 3)
	require.NoError(t, err)
	assert.Equal(t, block.Ice, b)
}

func TestSetBlockIdempotentForAllTypes(t *testing.T) {
	m := newTestManager(0, worker.Inline{}, nil)
	m.LoadInitialArea(vec.Vec3Float{})
	m.DrainCompletedWork(context.Background())

	for ty := block.Empty; ty < block.Count; ty++ {
		require.NoError(t, m.SetBlock(33, 200, 47, ty))
		got, err := m.GetBlock(33, 200, 47)
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
}

func TestSetBlockRemeshesBoundaryNeighbors(t *testing.T) {
	exec := &recordingExecutor{}
	m := newTestManager(0, exec, nil)
	m.LoadInitialArea(vec.Vec3Float{})
	settle(m, exec)

	before := exec.Count("mesh")
	require.NoError(t, m.SetBlock(5, 40, 5, block.Dirt))
	assert.Equal(t, before+1, exec.Count("mesh"))

	// x=15 граничит с чанком (16,0)
	require.NoError(t, m.SetBlock(15, 40, 5, block.Dirt))
	assert.Equal(t, before+3, exec.Count("mesh"))

	// угол: соседи по X и Z
	require.NoError(t, m.SetBlock(16, 40, 16, block.Dirt))
	assert.Equal(t, before+6, exec.Count("mesh"))

	// тот же тип: меш не трогаем
	require.NoError(t, m.SetBlock(16, 40, 16, block.Dirt))
	assert.Equal(t, before+6, exec.Count("mesh"))
}

func TestStaleMeshIsDropped(t *testing.T) {
	exec := &recordingExecutor{}
	backend := &NullBackend{}
	m := newTestManager(0, exec, backend, WithMetrics(metrics.NewTerrain(prometheus.NewRegistry())))
	m.LoadInitialArea(vec.Vec3Float{})
	settle(m, exec)
	uploads := backend.Uploads()

	require.NoError(t, m.SetBlock(5, 40, 5, block.Dirt))
	require.NoError(t, m.SetBlock(6, 40, 5, block.Dirt))
	exec.RunAll()
	report := m.DrainCompletedWork(context.Background())

	assert.Equal(t, 1, report.Meshes)
	assert.Equal(t, 1, report.Stale)
	assert.Equal(t, uploads+1, backend.Uploads())
	assert.Equal(t, 1, m.Stats().StaleMeshesDropped)
	assert.Equal(t, 0, m.Stats().PendingMeshes)
}

func TestBoundaryFacesCulledAcrossZones(t *testing.T) {
	exec := &recordingExecutor{}
	backend := &NullBackend{}
	m := newTestManager(1, exec, backend)
	m.LoadInitialArea(vec.Vec3Float{})
	settle(m, exec)

	// внутренний чанк окружён соседями: только верхние и нижние грани
	c, ok := m.ChunkAt(0, 0)
	require.True(t, ok)
	mesh := c.Mesh()
	require.NotNil(t, mesh)
	assert.Equal(t, 2*world.SizeX*world.SizeZ*4, len(mesh.Vertices))
}

func TestEventsArePublished(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	var mu sync.Mutex
	var got []string
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	m := newTestManager(0, worker.Inline{}, nil, WithEventBus(bus))
	m.LoadInitialArea(vec.Vec3Float{})
	m.DrainCompletedWork(context.Background())
	require.NoError(t, m.SetBlock(1, 1, 1, block.Empty))
	require.NoError(t, bus.Close())

	assert.ElementsMatch(t, []string{eventbus.TypeZoneGenerated, eventbus.TypeBlockChanged}, got)
}

func TestManagerWithRealGenerator(t *testing.T) {
	if testing.Short() {
		t.Skip("генерация зоны занимает заметное время")
	}
	backend := &NullBackend{}
	gen := worldgen.NewGenerator(config.DefaultGeneration())
	m := NewManager(config.TerrainConfig{}, worker.Inline{}, gen, backend, WithLogger(quietLogger()))

	m.LoadInitialArea(vec.Vec3Float{X: 32, Z: 32})
	m.DrainCompletedWork(context.Background())
	m.DrainCompletedWork(context.Background())

	assert.Equal(t, 16, backend.Uploads())
	assert.Greater(t, backend.Vertices(), 0)

	b, err := m.GetBlock(10, config.DefaultGeneration().BedrockLevel, 10)
	require.NoError(t, err)
	assert.Equal(t, block.Bedrock, b)
}

// failingGenerator паникует на первой генерации каждой зоны из fail
type failingGenerator struct {
	flatGenerator
	mu   sync.Mutex
	fail map[world.Key]bool
}

func (g *failingGenerator) GenerateZone(zone world.Key, chunks []*world.Chunk) {
	g.mu.Lock()
	boom := g.fail[zone]
	delete(g.fail, zone)
	g.mu.Unlock()
	if boom {
		panic("генератор сломан на зоне " + zone.String())
	}
	g.flatGenerator.GenerateZone(zone, chunks)
}

func TestFailedGenerationCanBeRetried(t *testing.T) {
	zone := ZoneKey(vec.Vec2{})
	gen := &failingGenerator{flatGenerator: flatGenerator{level: 10}, fail: map[world.Key]bool{zone: true}}
	reg := prometheus.NewRegistry()
	m := NewManager(config.TerrainConfig{}, worker.Inline{}, gen, nil,
		WithLogger(quietLogger()), WithMetrics(metrics.NewTerrain(reg)))

	require.Equal(t, 1, m.LoadInitialArea(vec.Vec3Float{}))
	report := m.DrainCompletedWork(context.Background())

	assert.Equal(t, 0, report.Zones)
	assert.False(t, m.IsZoneReady(zone))
	assert.False(t, m.IsZoneGenerated(zone))
	assert.Equal(t, 0, m.Stats().PendingGenerations)
	assert.ErrorIs(t, m.SetBlock(1, 20, 1, block.Dirt), ErrZoneNotReady)

	require.Equal(t, 1, m.LoadInitialArea(vec.Vec3Float{}))
	m.DrainCompletedWork(context.Background())
	assert.True(t, m.IsZoneReady(zone))
	b, err := m.GetBlock(1, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, block.Stone, b)

	n, err := testutil.GatherAndCount(reg, "voxel_terrain_tasks_failed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// closedExecutor отклоняет все задачи, как пул после Close
type closedExecutor struct{}

func (closedExecutor) Submit(worker.Task) error { return errors.New("pool closed") }

func TestRejectedTasksAreNotCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newTestManager(0, closedExecutor{}, nil, WithMetrics(metrics.NewTerrain(reg)))
	m.LoadInitialArea(vec.Vec3Float{})

	assert.Equal(t, 0, m.Stats().PendingGenerations)
	assert.False(t, m.IsZoneGenerated(ZoneKey(vec.Vec2{})))
	n, err := testutil.GatherAndCount(reg, "voxel_terrain_tasks_pending", "voxel_terrain_tasks_submitted_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSetBlockRejectedUntilZoneReady(t *testing.T) {
	exec := &recordingExecutor{}
	m := newTestManager(0, exec, nil)
	m.LoadInitialArea(vec.Vec3Float{})

	assert.ErrorIs(t, m.SetBlock(5, 40, 5, block.Dirt), ErrZoneNotReady)
	assert.Equal(t, 0, exec.Count("mesh"))

	settle(m, exec)
	require.NoError(t, m.SetBlock(5, 40, 5, block.Dirt))
	b, err := m.GetBlock(5, 40, 5)
	require.NoError(t, err)
	assert.Equal(t, block.Dirt, b)
}

func TestSlowSubscriberDoesNotStallSetBlock(t *testing.T) {
	bus := eventbus.NewMemoryBus(1)
	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		<-release
	})
	require.NoError(t, err)

	m := newTestManager(0, worker.Inline{}, nil, WithEventBus(bus))
	m.LoadInitialArea(vec.Vec3Float{})
	m.DrainCompletedWork(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 8; i++ {
			_ = m.SetBlock(i, 40, 0, block.Dirt)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetBlock заблокирован переполненной шиной")
	}

	close(release)
	require.NoError(t, bus.Close())
	assert.Positive(t, bus.Metrics().Dropped)
}
