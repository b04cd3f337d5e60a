package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/game"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/middleware"
	"github.com/annel0/voxelcore/internal/terrain"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

// RestServer отладочный HTTP сервер мира
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	view    WorldView
	metrics *ServerMetrics
	encoder *zstd.Encoder
	logger  *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockRequest тело PUT /v1/blocks
type BlockRequest struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Type string `json:"type" binding:"required"`
}

// NewRestServer создаёт сервер. Метрики HTTP регистрируются в reg,
// /metrics отдаёт всё содержимое gatherer.
func NewRestServer(cfg config.APIConfig, view WorldView, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*RestServer, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	logger := logging.GetAPILogger()
	router.Use(middleware.NewRequestLogger(logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	rs := &RestServer{
		router:  router,
		view:    view,
		metrics: NewServerMetrics(),
		encoder: encoder,
		logger:  logger,
	}
	rs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetPort()),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	v1 := rs.router.Group("/v1")
	{
		v1.GET("/stats", rs.handleStats)
		v1.GET("/blocks", rs.handleGetBlock)
		v1.PUT("/blocks", rs.handleSetBlock)
		v1.GET("/chunks/:x/:z", rs.handleChunk)
		v1.GET("/player", rs.handlePlayer)
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Addr адрес, на котором слушает сервер
func (rs *RestServer) Addr() string {
	return rs.server.Addr
}

// Start запускает REST сервер и блокирует до Shutdown
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 Debug API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь текущих запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	defer rs.encoder.Close()
	return rs.server.Shutdown(ctx)
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает состояние ландшафта и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	st, err := rs.view.Stats(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}

	stats := map[string]interface{}{
		"terrain": st,
		"uptime":  rs.metrics.GetUptime(),
		"memory":  rs.metrics.GetDetailedMemoryStats(),
	}
	if rss, err := rs.metrics.GetRSS(); err == nil {
		stats["rss_mb"] = rss
	}
	if cpu, err := rs.metrics.GetCPUUsage(); err == nil {
		stats["cpu_percent"] = cpu
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика получена", Data: stats})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(name))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{Message: fmt.Sprintf("Неверная координата %s", name)})
			return
		}
		coords[i] = v
	}

	t, err := rs.view.Block(c.Request.Context(), coords[0], coords[1], coords[2])
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок получен",
		Data:    gin.H{"x": coords[0], "y": coords[1], "z": coords[2], "type": t.String()},
	})
}

func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса"})
		return
	}
	t, err := block.Parse(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: err.Error()})
		return
	}
	if err := rs.view.SetBlock(c.Request.Context(), req.X, req.Y, req.Z, t); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок изменён"})
}

// handleChunk отдаёт сетку чанка, сжатую zstd. Байт i соответствует
// индексу x + 16*y + 4096*z.
func (rs *RestServer) handleChunk(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверные координаты чанка"})
		return
	}

	data, origin, err := rs.view.ChunkBlocks(c.Request.Context(), x, z)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.Header("X-Chunk-Origin", fmt.Sprintf("%d,%d", origin[0], origin[1]))
	c.Header("X-Chunk-Size", fmt.Sprintf("%dx%dx%d", world.SizeX, world.SizeY, world.SizeZ))
	c.Data(http.StatusOK, "application/zstd", rs.encoder.EncodeAll(data, make([]byte, 0, len(data)/8)))
}

func (rs *RestServer) handlePlayer(c *gin.Context) {
	info, err := rs.view.Player(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Игрок", Data: info})
}

// fail переводит ошибку мира в HTTP-статус
func (rs *RestServer) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, terrain.ErrNoChunk):
		status = http.StatusNotFound
	case errors.Is(err, terrain.ErrZoneNotReady):
		status = http.StatusConflict
	case errors.Is(err, world.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrStopped), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		rs.logger.Error("Ошибка обработки %s: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, GenericResponse{Message: err.Error()})
}
