package Transformer

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/GrainArc/RoadMesh/Road"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ReadOptions 要素转道路片段的参数
type ReadOptions struct {
	NameKey   string      // 道路名字段
	WidthKey  string      // 路宽字段，缺省用 Style.Width
	HeightKey string      // 路面高度字段
	Style     Road.Style  // 默认样式
	Frame     *LocalFrame // nil 表示坐标已经是平面米制
}

// DefaultReadOptions 默认读取 name / width / height 字段
func DefaultReadOptions() ReadOptions {
	return ReadOptions{NameKey: "name", WidthKey: "width", HeightKey: "height", Style: Road.DefaultStyle()}
}

// GeojsonToSegments 解析 GeoJSON 文本
func GeojsonToSegments(data []byte, opts ReadOptions) ([]*Road.Segment, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("解析GeoJSON失败: %w", err)
	}
	return FeaturesToSegments(fc.Features, opts), nil
}

// FeaturesToSegments 线和多线要素转为道路片段，其他几何类型跳过
func FeaturesToSegments(features []*geojson.Feature, opts ReadOptions) []*Road.Segment {
	var out []*Road.Segment
	skipped := 0
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		name := f.Properties.MustString(opts.NameKey, "")
		style := opts.Style
		if opts.WidthKey != "" {
			style.Width = propFloat(f.Properties, opts.WidthKey, style.Width)
		}
		tr := Road.Identity()
		if opts.HeightKey != "" {
			tr.Height = propFloat(f.Properties, opts.HeightKey, 0)
		}

		switch g := f.Geometry.(type) {
		case orb.LineString:
			out = append(out, Road.NewSegment(name, LineToLocal(g, opts.Frame), tr, style))
		case orb.MultiLineString:
			for _, ls := range g {
				out = append(out, Road.NewSegment(name, LineToLocal(ls, opts.Frame), tr, style))
			}
		default:
			skipped++
		}
	}
	if skipped > 0 {
		log.Printf("跳过非线要素 %d 个", skipped)
	}
	return out
}

// propFloat 数值或数字字符串（shapefile 属性）
func propFloat(props geojson.Properties, key string, def float64) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// BoundOf 要素集合的范围
func BoundOf(features []*geojson.Feature) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if !found {
			b, found = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, found
}
