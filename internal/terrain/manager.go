package terrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/worker"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

var (
	// ErrNoChunk возвращается при обращении к столбцу мира без загруженного чанка
	ErrNoChunk = errors.New("no such chunk")
	// ErrZoneNotReady запись в чанк, чьи блоки ещё генерируются
	ErrZoneNotReady = errors.New("zone not ready")
)

// Приоритеты событий ниже порога шины: при полном буфере они отбрасываются,
// а не блокируют тик
const (
	priorityZoneGenerated = 3
	priorityBlockChanged  = 4
)

// ZoneGenerator заполняет блоки всех чанков зоны. Вызывается из воркеров.
type ZoneGenerator interface {
	GenerateZone(zone world.Key, chunks []*world.Chunk)
}

// Manager владеет картой чанков, решает, какие зоны нужны вокруг игрока,
// и раз в тик переносит результаты воркеров в состояние мира.
//
// Все методы, кроме ChunkByKey, вызываются из одного (главного) потока.
type Manager struct {
	radius  int
	exec    worker.Executor
	gen     ZoneGenerator
	backend RenderBackend

	logger  *logging.Logger
	metrics *metrics.Terrain
	bus     eventbus.EventBus
	tracer  trace.Tracer

	// chunksMu защищает карту: воркеры меширования читают соседей через ChunkByKey
	chunksMu sync.RWMutex
	chunks   map[world.Key]*world.Chunk

	generated map[world.Key]struct{} // зоны, для которых отправлена генерация
	ready     map[world.Key]struct{} // зоны, чьи блоки приняты главным потоком

	blockResults queue[blockResult]
	meshResults  queue[meshResult]

	tick           uint64
	pendingGen     int
	pendingMeshes  int
	staleDropped   int
	uploadedMeshes int
}

// Option настраивает Manager
type Option func(*Manager)

// WithLogger задаёт логгер менеджера
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics задаёт метрики менеджера
func WithMetrics(t *metrics.Terrain) Option {
	return func(m *Manager) { m.metrics = t }
}

// WithEventBus включает публикацию событий мира
func WithEventBus(bus eventbus.EventBus) Option {
	return func(m *Manager) { m.bus = bus }
}

// NewManager создаёт менеджер. Пул задач передаётся снаружи и не закрывается менеджером.
func NewManager(cfg config.TerrainConfig, exec worker.Executor, gen ZoneGenerator, backend RenderBackend, opts ...Option) *Manager {
	if backend == nil {
		backend = &NullBackend{}
	}
	m := &Manager{
		radius:    cfg.ZoneRadius,
		exec:      exec,
		gen:       gen,
		backend:   backend,
		tracer:    observability.Tracer("terrain"),
		chunks:    make(map[world.Key]*world.Chunk),
		generated: make(map[world.Key]struct{}),
		ready:     make(map[world.Key]struct{}),
	}
	if m.radius < 0 {
		m.radius = 0
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.GetTerrainLogger()
	}
	return m
}

// Radius радиус окрестности зон
func (m *Manager) Radius() int {
	return m.radius
}

// ChunkByKey возвращает чанк по ключу. Безопасен для вызова из воркеров.
func (m *Manager) ChunkByKey(k world.Key) (*world.Chunk, bool) {
	m.chunksMu.RLock()
	defer m.chunksMu.RUnlock()
	c, ok := m.chunks[k]
	return c, ok
}

// ChunkAt возвращает чанк, содержащий мировой столбец (x, z)
func (m *Manager) ChunkAt(x, z int) (*world.Chunk, bool) {
	return m.ChunkByKey(world.ChunkKeyAt(x, z))
}

// HasChunkAt сообщает, загружен ли чанк для мирового столбца (x, z)
func (m *Manager) HasChunkAt(x, z int) bool {
	_, ok := m.ChunkAt(x, z)
	return ok
}

// IsZoneGenerated сообщает, отправлялась ли зона на генерацию
func (m *Manager) IsZoneGenerated(zone world.Key) bool {
	_, ok := m.generated[zone]
	return ok
}

// IsZoneReady сообщает, приняты ли блоки зоны главным потоком
func (m *Manager) IsZoneReady(zone world.Key) bool {
	_, ok := m.ready[zone]
	return ok
}

// LoadInitialArea создаёт и отправляет на генерацию все ещё не созданные зоны
// в радиусе от center. Возвращает число отправленных зон.
func (m *Manager) LoadInitialArea(center vec.Vec3Float) int {
	origin := ZoneOrigin(center)
	submitted := 0
	for _, zone := range ZoneKeysAround(origin, m.radius) {
		if m.IsZoneGenerated(zone) {
			continue
		}
		m.generateZone(zone)
		submitted++
	}
	m.logger.Info("Начальная область %v: отправлено зон %d (радиус %d)", origin, submitted, m.radius)
	return submitted
}

// TryExpand пересчитывает окрестность зон при переходе игрока из prev в curr.
// Уходящие зоны теряют меши, вернувшиеся получают их заново, новые генерируются.
// Возвращает false, если игрок остался в той же зоне.
func (m *Manager) TryExpand(prev, curr vec.Vec3Float) bool {
	prevOrigin, currOrigin := ZoneOrigin(prev), ZoneOrigin(curr)
	if prevOrigin == currOrigin {
		return false
	}

	prevKeys := ZoneKeysAround(prevOrigin, m.radius)
	currKeys := ZoneKeysAround(currOrigin, m.radius)
	prevSet, currSet := keySet(prevKeys), keySet(currKeys)

	released := 0
	for _, zone := range prevKeys {
		if _, keep := currSet[zone]; !keep {
			released += m.releaseZone(zone)
		}
	}

	remeshed, generated := 0, 0
	for _, zone := range currKeys {
		if _, seen := prevSet[zone]; seen {
			continue
		}
		switch {
		case m.IsZoneReady(zone):
			for _, k := range zoneChunkKeys(zone) {
				if c, ok := m.ChunkByKey(k); ok {
					m.submitMesh(c)
					remeshed++
				}
			}
		case m.IsZoneGenerated(zone):
			// генерация ещё в полёте, меш будет построен при её приёме
		default:
			m.generateZone(zone)
			generated++
		}
	}

	m.logger.Debug("Расширение %v -> %v: освобождено мешей %d, перемешировано чанков %d, новых зон %d",
		prevOrigin, currOrigin, released, remeshed, generated)
	return true
}

// DrainReport итог одного вызова DrainCompletedWork
type DrainReport struct {
	Zones  int
	Meshes int
	Stale  int
}

// DrainCompletedWork переносит результаты воркеров в состояние мира: сначала
// готовые блоки (с отправкой задач меширования), затем готовые меши. Меши задач,
// отправленных в этом же вызове, станут видны не раньше следующего тика.
func (m *Manager) DrainCompletedWork(ctx context.Context) DrainReport {
	start := time.Now()
	m.tick++
	_, span := m.tracer.Start(ctx, "terrain.drain")
	defer span.End()

	var report DrainReport

	blocks := m.blockResults.Drain()
	if len(blocks) > 0 {
		report.Zones = m.acceptBlocks(ctx, blocks)
	}

	var deferred []meshResult
	for _, r := range m.meshResults.Drain() {
		if r.tick >= m.tick {
			deferred = append(deferred, r)
			continue
		}
		if r.err != nil {
			m.pendingMeshes--
			m.metrics.TaskFailed(metrics.TaskMesh)
			m.logger.Error("Меш чанка %s не построен: %v", r.chunk.Key(), r.err)
			continue
		}
		if r.seq != r.chunk.MeshSeq() {
			m.pendingMeshes--
			m.staleDropped++
			report.Stale++
			m.metrics.StaleMeshDropped()
			continue
		}
		m.pendingMeshes--
		r.chunk.SetMesh(r.mesh)
		m.backend.Upload(r.chunk.Key(), r.mesh)
		m.uploadedMeshes++
		report.Meshes++
		m.metrics.TaskCompleted(metrics.TaskMesh, r.took)
		m.metrics.MeshUploaded()
	}
	if len(deferred) > 0 {
		m.meshResults.Push(deferred...)
	}

	span.SetAttributes(
		attribute.Int("zones", report.Zones),
		attribute.Int("meshes", report.Meshes),
		attribute.Int("stale", report.Stale),
	)
	m.metrics.ObserveDrain(time.Since(start))
	return report
}

// acceptBlocks отмечает зоны готовыми и отправляет меширование их чанков и
// уже готовых соседей за границей пакета
func (m *Manager) acceptBlocks(ctx context.Context, results []blockResult) int {
	toMesh := make(map[world.Key]*world.Chunk)
	var order []*world.Chunk
	add := func(c *world.Chunk) {
		if _, ok := toMesh[c.Key()]; ok {
			return
		}
		toMesh[c.Key()] = c
		order = append(order, c)
	}

	accepted := results[:0]
	for _, r := range results {
		m.pendingGen--
		if r.err != nil {
			// зона снова считается несгенерированной и будет отправлена при следующем входе в радиус
			delete(m.generated, r.zone)
			m.metrics.TaskFailed(metrics.TaskGenerate)
			m.logger.Error("Генерация зоны %s не удалась: %v", r.zone, r.err)
			continue
		}
		accepted = append(accepted, r)
		m.ready[r.zone] = struct{}{}
		m.metrics.TaskCompleted(metrics.TaskGenerate, r.took)
		m.metrics.ZoneGenerated()
		for _, c := range r.chunks {
			add(c)
		}
	}

	results = accepted
	for _, r := range results {
		for _, c := range r.chunks {
			for _, dir := range world.Lateral {
				nk, ok := c.Neighbor(dir)
				if !ok {
					continue
				}
				if _, queued := toMesh[nk]; queued || !m.IsZoneReady(zoneOfChunk(nk)) {
					continue
				}
				if n, ok := m.ChunkByKey(nk); ok {
					add(n)
				}
			}
		}
	}

	for _, c := range order {
		m.submitMesh(c)
	}

	for _, r := range results {
		zx, zz := r.zone.Unpack()
		m.publish(ctx, eventbus.TypeZoneGenerated, priorityZoneGenerated, eventbus.ZoneGenerated{
			ZoneX:      zx,
			ZoneZ:      zz,
			Chunks:     len(r.chunks),
			BatchID:    r.batch,
			DurationMs: float64(r.took.Microseconds()) / 1000,
		})
	}
	return len(results)
}

// GetBlock возвращает блок по мировым координатам. Выход за пределы по высоте
// даёт EMPTY, отсутствие чанка ошибку ErrNoChunk.
func (m *Manager) GetBlock(x, y, z int) (block.Type, error) {
	c, ok := m.ChunkAt(x, z)
	if !ok {
		return block.Empty, fmt.Errorf("block (%d,%d,%d): %w", x, y, z, ErrNoChunk)
	}
	if y < 0 || y >= world.SizeY {
		return block.Empty, nil
	}
	return c.GetBlock(vec.FloorMod(x, world.SizeX), y, vec.FloorMod(z, world.SizeZ))
}

// SetBlock записывает блок по мировым координатам и перестраивает меш чанка,
// а на границе чанка и меш соседа. Запись выше или ниже мира игнорируется.
// Пока блоки зоны не приняты, запись отклоняется с ErrZoneNotReady.
func (m *Manager) SetBlock(x, y, z int, t block.Type) error {
	c, ok := m.ChunkAt(x, z)
	if !ok {
		return fmt.Errorf("block (%d,%d,%d): %w", x, y, z, ErrNoChunk)
	}
	if y < 0 || y >= world.SizeY {
		return nil
	}
	if !m.IsZoneReady(zoneOfChunk(c.Key())) {
		return fmt.Errorf("block (%d,%d,%d): %w", x, y, z, ErrZoneNotReady)
	}
	lx, lz := vec.FloorMod(x, world.SizeX), vec.FloorMod(z, world.SizeZ)
	old, err := c.GetBlock(lx, y, lz)
	if err != nil {
		return err
	}
	if err := c.SetBlock(lx, y, lz, t); err != nil {
		return err
	}
	if old == t {
		return nil
	}

	m.submitMesh(c)
	for _, dir := range boundaryDirections(lx, lz) {
		nk, ok := c.Neighbor(dir)
		if !ok || !m.IsZoneReady(zoneOfChunk(nk)) {
			continue
		}
		if n, ok := m.ChunkByKey(nk); ok {
			m.submitMesh(n)
		}
	}

	m.publish(context.Background(), eventbus.TypeBlockChanged, priorityBlockChanged, eventbus.BlockChanged{
		X: x, Y: y, Z: z, Old: old.String(), New: t.String(),
	})
	return nil
}

// boundaryDirections стороны чанка, к которым прилегает локальный столбец
func boundaryDirections(lx, lz int) []world.Direction {
	var dirs []world.Direction
	if lx == 0 {
		dirs = append(dirs, world.XNeg)
	}
	if lx == world.SizeX-1 {
		dirs = append(dirs, world.XPos)
	}
	if lz == 0 {
		dirs = append(dirs, world.ZNeg)
	}
	if lz == world.SizeZ-1 {
		dirs = append(dirs, world.ZPos)
	}
	return dirs
}

// VisibleChunks чанки с резидентным мешем в окрестности зон вокруг center
func (m *Manager) VisibleChunks(center vec.Vec3Float) []*world.Chunk {
	var out []*world.Chunk
	for _, zone := range ZoneKeysAround(ZoneOrigin(center), m.radius) {
		for _, k := range zoneChunkKeys(zone) {
			if c, ok := m.ChunkByKey(k); ok && c.HasMesh() {
				out = append(out, c)
			}
		}
	}
	return out
}

// Stats сводка состояния менеджера
type Stats struct {
	Tick               uint64 `json:"tick"`
	Chunks             int    `json:"chunks"`
	Zones              int    `json:"zones"`
	ReadyZones         int    `json:"ready_zones"`
	PendingGenerations int    `json:"pending_generations"`
	PendingMeshes      int    `json:"pending_meshes"`
	MeshResident       int    `json:"mesh_resident"`
	MeshesUploaded     int    `json:"meshes_uploaded"`
	StaleMeshesDropped int    `json:"stale_meshes_dropped"`
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Tick:               m.tick,
		Zones:              len(m.generated),
		ReadyZones:         len(m.ready),
		PendingGenerations: m.pendingGen,
		PendingMeshes:      m.pendingMeshes,
		MeshesUploaded:     m.uploadedMeshes,
		StaleMeshesDropped: m.staleDropped,
	}
	m.chunksMu.RLock()
	s.Chunks = len(m.chunks)
	for _, c := range m.chunks {
		if c.HasMesh() {
			s.MeshResident++
		}
	}
	m.chunksMu.RUnlock()
	return s
}

// generateZone создаёт 16 чанков зоны, связывает их с существующими соседями
// и отправляет одну задачу генерации
func (m *Manager) generateZone(zone world.Key) {
	m.generated[zone] = struct{}{}
	chunks := m.instantiateZone(zone)

	batch := uuid.NewString()
	task := worker.Task{
		Name: "generate zone " + zone.String(),
		Run: func(ctx context.Context) {
			zx, zz := zone.Unpack()
			_, span := m.tracer.Start(ctx, "terrain.generate_zone", trace.WithAttributes(
				attribute.Int("zone.x", int(zx)),
				attribute.Int("zone.z", int(zz)),
				attribute.String("batch.id", batch),
			))
			defer span.End()
			res := blockResult{zone: zone, chunks: chunks, batch: batch}
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					res.err = fmt.Errorf("panic: %v", r)
				}
				res.took = time.Since(start)
				m.blockResults.Push(res)
			}()
			m.gen.GenerateZone(zone, chunks)
		},
	}

	m.pendingGen++
	if err := m.exec.Submit(task); err != nil {
		m.pendingGen--
		delete(m.generated, zone)
		m.logger.Error("Не удалось отправить генерацию зоны %s: %v", zone, err)
		return
	}
	m.metrics.TaskSubmitted(metrics.TaskGenerate)
}

func (m *Manager) instantiateZone(zone world.Key) []*world.Chunk {
	keys := zoneChunkKeys(zone)
	chunks := make([]*world.Chunk, 0, len(keys))

	m.chunksMu.Lock()
	defer m.chunksMu.Unlock()
	for _, k := range keys {
		c, ok := m.chunks[k]
		if !ok {
			c = world.NewChunk(k.Unpack())
			m.chunks[k] = c
			m.metrics.ChunkInstantiated()
		}
		chunks = append(chunks, c)
	}
	for _, c := range chunks {
		ox, oz := c.Origin()
		for _, dir := range world.Lateral {
			off := dir.Offset()
			nk := world.PackKey(ox+int32(off.X*world.SizeX), oz+int32(off.Z*world.SizeZ))
			if n, ok := m.chunks[nk]; ok {
				c.LinkNeighbor(n, dir)
			}
		}
	}
	return chunks
}

// submitMesh отправляет задачу построения меша. Результат принимается, только
// если за это время для чанка не был запрошен более новый меш.
func (m *Manager) submitMesh(c *world.Chunk) {
	seq := c.NextMeshSeq()
	tick := m.tick
	task := worker.Task{
		Name: "mesh chunk " + c.Key().String(),
		Run: func(ctx context.Context) {
			_, span := m.tracer.Start(ctx, "terrain.build_mesh")
			defer span.End()
			res := meshResult{chunk: c, seq: seq, tick: tick}
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					res.err = fmt.Errorf("panic: %v", r)
				}
				res.took = time.Since(start)
				m.meshResults.Push(res)
			}()
			res.mesh = c.BuildMesh(m)
		},
	}

	m.pendingMeshes++
	if err := m.exec.Submit(task); err != nil {
		m.pendingMeshes--
		m.logger.Error("Не удалось отправить меширование чанка %s: %v", c.Key(), err)
		return
	}
	m.metrics.TaskSubmitted(metrics.TaskMesh)
}

// releaseZone освобождает меши чанков зоны, блоки остаются в памяти
func (m *Manager) releaseZone(zone world.Key) int {
	released := 0
	for _, k := range zoneChunkKeys(zone) {
		c, ok := m.ChunkByKey(k)
		if !ok || !c.HasMesh() {
			continue
		}
		c.ReleaseMesh()
		m.backend.Release(k)
		m.metrics.MeshReleased()
		released++
	}
	return released
}

func (m *Manager) publish(ctx context.Context, eventType string, priority int, payload interface{}) {
	if m.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("terrain", eventType, priority, payload)
	if err != nil {
		m.logger.Warn("Событие %s не собрано: %v", eventType, err)
		return
	}
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}
