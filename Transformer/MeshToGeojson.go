package Transformer

import (
	"github.com/GrainArc/RoadMesh/Intersection"
	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func toOrb(p r2.Point, frame *LocalFrame) orb.Point {
	if frame == nil {
		return orb.Point{p.X, p.Y}
	}
	return frame.ToWGS84(p)
}

// MeshToFeatures 每个面输出为一个多边形要素
func MeshToFeatures(m *Mesh.Mesh, frame *LocalFrame) []*geojson.Feature {
	var out []*geojson.Feature
	for _, f := range m.Faces {
		if len(f.Indexes) < 3 {
			continue
		}
		ring := make(orb.Ring, 0, len(f.Indexes)+1)
		for _, v := range f.Indexes {
			ring = append(ring, toOrb(m.Position2(v), frame))
		}
		ring = append(ring, ring[0])

		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.Properties["road"] = m.Name
		feature.Properties["face"] = f.ID
		feature.Properties["z"] = m.FaceCenter(f).Z
		out = append(out, feature)
	}
	return out
}

// MeshesToGeojson 多个网格合并为一个要素集合
func MeshesToGeojson(meshes []*Mesh.Mesh, frame *LocalFrame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range meshes {
		if m == nil {
			continue
		}
		fc.Features = append(fc.Features, MeshToFeatures(m, frame)...)
	}
	return fc
}

// OutcomesToGeojson 路口结果输出为点要素，便于调试
func OutcomesToGeojson(outcomes []Intersection.Outcome, failures []*Intersection.JunctionError, frame *LocalFrame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range outcomes {
		f := geojson.NewFeature(toOrb(o.Point, frame))
		f.Properties["main"] = o.MainRoad
		f.Properties["minor"] = o.MinorRoad
		f.Properties["resized"] = o.Resized
		f.Properties["combined"] = o.Combined
		f.Properties["status"] = "ok"
		fc.Append(f)
	}
	for _, e := range failures {
		f := geojson.NewFeature(toOrb(e.Point, frame))
		f.Properties["main"] = e.Main
		f.Properties["minor"] = e.Minor
		f.Properties["step"] = e.Step.String()
		f.Properties["error"] = e.Err.Error()
		f.Properties["status"] = "failed"
		fc.Append(f)
	}
	return fc
}
