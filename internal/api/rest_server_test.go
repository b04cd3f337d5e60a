package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/terrain"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

// fakeView мир из одного чанка (0,0), заполненного камнем до y=3
type fakeView struct {
	grid    *world.Grid
	loading bool
}

func newFakeView() *fakeView {
	g := new(world.Grid)
	for x := 0; x < world.SizeX; x++ {
		for z := 0; z < world.SizeZ; z++ {
			for y := 0; y <= 3; y++ {
				g.Put(x, y, z, block.Stone)
			}
		}
	}
	return &fakeView{grid: g}
}

func (f *fakeView) inChunk(x, z int) error {
	if x < 0 || x >= world.SizeX || z < 0 || z >= world.SizeZ {
		return fmt.Errorf("block (%d,%d): %w", x, z, terrain.ErrNoChunk)
	}
	return nil
}

func (f *fakeView) Stats(context.Context) (terrain.Stats, error) {
	return terrain.Stats{Chunks: 1, Zones: 1}, nil
}

func (f *fakeView) Block(_ context.Context, x, y, z int) (block.Type, error) {
	if err := f.inChunk(x, z); err != nil {
		return block.Empty, err
	}
	if y < 0 || y >= world.SizeY {
		return block.Empty, nil
	}
	return f.grid.At(x, y, z), nil
}

func (f *fakeView) SetBlock(_ context.Context, x, y, z int, t block.Type) error {
	if err := f.inChunk(x, z); err != nil {
		return err
	}
	if f.loading {
		return fmt.Errorf("block (%d,%d,%d): %w", x, y, z, terrain.ErrZoneNotReady)
	}
	return f.grid.Set(x, y, z, t)
}

func (f *fakeView) ChunkBlocks(_ context.Context, x, z int) ([]byte, [2]int32, error) {
	if err := f.inChunk(x, z); err != nil {
		return nil, [2]int32{}, err
	}
	return f.grid.Bytes(), [2]int32{0, 0}, nil
}

func (f *fakeView) Player(context.Context) (PlayerInfo, error) {
	return PlayerInfo{Position: [3]float64{1, 2, 3}, Flying: true, State: "flying"}, nil
}

func newTestServer(t *testing.T) (*RestServer, *fakeView) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	view := newFakeView()
	rs, err := NewRestServer(config.APIConfig{Port: 9999}, view, reg, reg)
	require.NoError(t, err)
	return rs, view
}

func do(rs *RestServer, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	rs, _ := newTestServer(t)
	w := do(rs, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Equal(t, ":9999", rs.Addr())
}

func TestGetBlock(t *testing.T) {
	rs, _ := newTestServer(t)

	w := do(rs, http.MethodGet, "/v1/blocks?x=1&y=2&z=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool
		Data    map[string]interface{}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "STONE", resp.Data["type"])

	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/v1/blocks?x=a&y=2&z=3", "").Code)
	assert.Equal(t, http.StatusNotFound, do(rs, http.MethodGet, "/v1/blocks?x=100&y=2&z=3", "").Code)
}

func TestSetBlock(t *testing.T) {
	rs, view := newTestServer(t)

	w := do(rs, http.MethodPut, "/v1/blocks", `{"x":2,"y":10,"z":2,"type":"lava"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, block.Lava, view.grid.At(2, 10, 2))

	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodPut, "/v1/blocks", `{"x":2,"y":10,"z":2,"type":"obsidian"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodPut, "/v1/blocks", `{"x":2,"y":300,"z":2,"type":"dirt"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(rs, http.MethodPut, "/v1/blocks", `{"x":-1,"y":3,"z":2,"type":"dirt"}`).Code)

	view.loading = true
	assert.Equal(t, http.StatusConflict, do(rs, http.MethodPut, "/v1/blocks", `{"x":3,"y":10,"z":3,"type":"dirt"}`).Code)
	assert.Equal(t, block.Empty, view.grid.At(3, 10, 3))
}

func TestChunkDumpIsZstd(t *testing.T) {
	rs, view := newTestServer(t)

	w := do(rs, http.MethodGet, "/v1/chunks/5/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zstd", w.Header().Get("Content-Type"))
	assert.Equal(t, "0,0", w.Header().Get("X-Chunk-Origin"))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(w.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, view.grid.Bytes(), raw)
	assert.Less(t, w.Body.Len(), world.Volume/10)

	assert.Equal(t, http.StatusNotFound, do(rs, http.MethodGet, "/v1/chunks/64/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/v1/chunks/x/0", "").Code)
}

func TestStatsAndPlayer(t *testing.T) {
	rs, _ := newTestServer(t)

	w := do(rs, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chunks":1`)
	assert.Contains(t, w.Body.String(), `"goroutines"`)

	w = do(rs, http.MethodGet, "/v1/player", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"flying"`)
}

func TestMetricsEndpoint(t *testing.T) {
	rs, _ := newTestServer(t)
	do(rs, http.MethodGet, "/health", "")

	w := do(rs, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voxel_api_http_request_duration_seconds")
}

func TestUptimeFormat(t *testing.T) {
	sm := NewServerMetrics()
	assert.True(t, strings.HasSuffix(sm.GetUptime(), "с"))
}
