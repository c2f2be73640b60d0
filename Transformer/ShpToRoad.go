package Transformer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gitee.com/LJ_COOL/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func GbkToUtf8(s string) string {
	utf8String, _, err := transform.String(simplifiedchinese.GBK.NewDecoder(), s)
	if err != nil {
		return s
	}
	return utf8String
}

func Utf8ToGbk(s string) []byte {
	out, _, err := transform.String(simplifiedchinese.GBK.NewEncoder(), s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}

// shpEncoding 优先读 .cpg，没有时对 .dbf 做编码检测，默认 GBK
func shpEncoding(shpPath string) string {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	if cpg, err := os.ReadFile(base + ".cpg"); err == nil {
		if enc := strings.ToUpper(strings.TrimSpace(string(cpg))); enc != "" {
			if strings.HasPrefix(enc, "GB") || enc == "936" || enc == "CP936" {
				return "GBK"
			}
			return enc
		}
	}
	data, err := os.ReadFile(base + ".dbf")
	if err != nil || len(data) == 0 {
		return "GBK"
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		log.Printf("编码检测失败: %v", err)
		return "GBK"
	}
	if strings.EqualFold(result.Charset, "UTF-8") {
		return "UTF-8"
	}
	return "GBK"
}

// ShpToFeatures 读取线 shapefile，多部件的线拆成 MultiLineString。属性值一律为字符串
func ShpToFeatures(path string) ([]*geojson.Feature, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开shapefile失败: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	encoding := shpEncoding(path)

	var out []*geojson.Feature
	skipped := 0
	for shape.Next() {
		n, p := shape.Shape()

		var points []shp.Point
		var parts []int32
		switch s := p.(type) {
		case *shp.PolyLine:
			points, parts = s.Points, s.Parts
		case *shp.PolyLineZ:
			points, parts = s.Points, s.Parts
		case *shp.PolyLineM:
			points, parts = s.Points, s.Parts
		default:
			skipped++
			continue
		}

		lines := splitParts(points, parts)
		if len(lines) == 0 {
			skipped++
			continue
		}
		var f *geojson.Feature
		if len(lines) == 1 {
			f = geojson.NewFeature(lines[0])
		} else {
			f = geojson.NewFeature(lines)
		}
		for k, field := range fields {
			name, value := field.String(), strings.TrimSpace(shape.ReadAttribute(n, k))
			if encoding == "GBK" {
				name, value = GbkToUtf8(name), GbkToUtf8(value)
			}
			f.Properties[strings.ToLower(strings.TrimRight(name, "\x00"))] = value
		}
		out = append(out, f)
	}
	if skipped > 0 {
		log.Printf("%s: 跳过非线要素 %d 个", filepath.Base(path), skipped)
	}
	return out, nil
}

func splitParts(points []shp.Point, parts []int32) orb.MultiLineString {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	var out orb.MultiLineString
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		ls := make(orb.LineString, 0, end-start)
		for _, pt := range points[start:end] {
			ls = append(ls, orb.Point{pt.X, pt.Y})
		}
		out = append(out, ls)
	}
	return out
}
