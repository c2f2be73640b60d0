package Transformer

import (
	"bytes"
	"fmt"

	"github.com/GrainArc/RoadMesh/Road"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeTile 解码矢量瓦片（支持gzip压缩），坐标转为经纬度，返回指定图层的要素
func DecodeTile(data []byte, tile maptile.Tile, layer string) ([]*geojson.Feature, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if bytes.HasPrefix(data, gzipMagic) {
		layers, err = mvt.UnmarshalGzipped(data)
	} else {
		layers, err = mvt.Unmarshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("瓦片 %d/%d/%d 解码失败: %w", tile.Z, tile.X, tile.Y, err)
	}
	layers.ProjectToWGS84(tile)
	for _, l := range layers {
		if l.Name == layer {
			return l.Features, nil
		}
	}
	return nil, nil
}

// MvtToSegments 瓦片中道路图层转为道路片段
func MvtToSegments(data []byte, tile maptile.Tile, layer string, opts ReadOptions) ([]*Road.Segment, error) {
	features, err := DecodeTile(data, tile, layer)
	if err != nil {
		return nil, err
	}
	return FeaturesToSegments(features, opts), nil
}

// EncodeTile 把经纬度要素编码为单图层矢量瓦片，超出瓦片缓冲区的部分裁掉
func EncodeTile(fc *geojson.FeatureCollection, tile maptile.Tile, layer string) ([]byte, error) {
	layers := mvt.NewLayers(map[string]*geojson.FeatureCollection{layer: fc})
	layers.ProjectToTile(tile)
	layers.Clip(mvt.MapboxGLDefaultExtentBound)
	return mvt.Marshal(layers)
}
