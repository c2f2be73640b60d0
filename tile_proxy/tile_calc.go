// tile_calc.go
package tile_proxy

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileCoord 瓦片坐标
type TileCoord struct {
	Z int
	X int
	Y int
}

func (t TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Maptile 转为 orb 的瓦片
func (t TileCoord) Maptile() maptile.Tile {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Z))
}

// TileRange 瓦片范围（闭区间）
type TileRange struct {
	Z    int
	MinX int
	MaxX int
	MinY int
	MaxY int
}

// Count 瓦片数量
func (r TileRange) Count() int {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Tiles 按行展开
func (r TileRange) Tiles() []TileCoord {
	out := make([]TileCoord, 0, r.Count())
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, TileCoord{Z: r.Z, X: x, Y: y})
		}
	}
	return out
}

// GetTileBoundsWGS84 获取瓦片的WGS84边界
func GetTileBoundsWGS84(z, x, y int) orb.Bound {
	n := math.Pow(2, float64(z))

	minLon := float64(x)/n*360.0 - 180.0
	maxLon := float64(x+1)/n*360.0 - 180.0

	minLat := math.Atan(math.Sinh(math.Pi*(1-2*float64(y+1)/n))) * 180.0 / math.Pi
	maxLat := math.Atan(math.Sinh(math.Pi*(1-2*float64(y)/n))) * 180.0 / math.Pi

	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// LonLatToTileCoord 经纬度转瓦片坐标
func LonLatToTileCoord(lon, lat float64, z int) TileCoord {
	n := math.Pow(2, float64(z))

	x := int(math.Floor((lon + 180.0) / 360.0 * n))

	latRad := lat * math.Pi / 180.0
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	// 边界处理
	maxTile := int(n) - 1
	x = clamp(x, 0, maxTile)
	y = clamp(y, 0, maxTile)

	return TileCoord{Z: z, X: x, Y: y}
}

// TileRangeForBound 覆盖经纬度范围的瓦片，北边对应较小的行号
func TileRangeForBound(b orb.Bound, z int) TileRange {
	nw := LonLatToTileCoord(b.Min[0], b.Max[1], z)
	se := LonLatToTileCoord(b.Max[0], b.Min[1], z)
	return TileRange{Z: z, MinX: nw.X, MaxX: se.X, MinY: nw.Y, MaxY: se.Y}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
