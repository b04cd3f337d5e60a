package eventbus

// Типы событий мира
const (
	TypeZoneGenerated = "zone.generated"
	TypeBlockChanged  = "block.changed"
)

// ZoneGenerated публикуется, когда блоки зоны приняты главным потоком
type ZoneGenerated struct {
	ZoneX      int32   `json:"zone_x"`
	ZoneZ      int32   `json:"zone_z"`
	Chunks     int     `json:"chunks"`
	BatchID    string  `json:"batch_id"`
	DurationMs float64 `json:"duration_ms"`
}

// BlockChanged публикуется при изменении блока игроком или через API
type BlockChanged struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Z   int    `json:"z"`
	Old string `json:"old"`
	New string `json:"new"`
}
