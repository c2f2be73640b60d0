package models

import (
	"fmt"

	"github.com/GrainArc/RoadMesh/Road"
	"github.com/GrainArc/RoadMesh/Transformer"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// RoadRecord 合并后的道路，几何以 WKB 存储
type RoadRecord struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	UUID       string  `gorm:"index;size:36" json:"uuid"`
	Region     string  `gorm:"index;not null" json:"region"`
	Name       string  `gorm:"index" json:"name"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PointCount int     `json:"point_count"`
	Geographic bool    `json:"geographic"` // Geom 为经纬度
	Geom       []byte  `gorm:"type:BLOB" json:"-"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
}

func (RoadRecord) TableName() string {
	return "roads"
}

// NewRoadRecord frame 不为 nil 时几何存为经纬度
func NewRoadRecord(region string, s *Road.Segment, frame *Transformer.LocalFrame) (RoadRecord, error) {
	if !s.IsValid() {
		return RoadRecord{}, fmt.Errorf("%v: %w", s, Road.ErrInvalidSegment)
	}
	ls := make(orb.LineString, len(s.Points))
	for i, p := range s.Points {
		if frame == nil {
			ls[i] = orb.Point{p.X, p.Y}
			continue
		}
		ls[i] = frame.ToWGS84(r2.Point{X: p.X, Y: p.Y})
	}
	geom, err := wkb.Marshal(ls)
	if err != nil {
		return RoadRecord{}, err
	}
	return RoadRecord{
		UUID:       s.ID.String(),
		Region:     region,
		Name:       s.Name,
		Width:      s.Style.Width,
		Height:     s.Points[0].Z,
		PointCount: len(s.Points),
		Geographic: frame != nil,
		Geom:       geom,
	}, nil
}

// Bound 几何范围
func (r RoadRecord) Bound() (orb.Bound, error) {
	g, err := wkb.Unmarshal(r.Geom)
	if err != nil {
		return orb.Bound{}, err
	}
	return g.Bound(), nil
}

// Segment 还原为道路
func (r RoadRecord) Segment(frame *Transformer.LocalFrame) (*Road.Segment, error) {
	g, err := wkb.Unmarshal(r.Geom)
	if err != nil {
		return nil, err
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("道路 %s 几何类型错误: %s", r.Name, g.GeoJSONType())
	}
	style := Road.DefaultStyle()
	if r.Width > 0 {
		style.Width = r.Width
	}
	tr := Road.Identity()
	tr.Height = r.Height
	return Road.NewSegment(r.Name, Transformer.LineToLocal(ls, frame), tr, style), nil
}
