package models

import (
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/GrainArc/RoadMesh/Geometry"
	"github.com/GrainArc/RoadMesh/Intersection"
	"github.com/GrainArc/RoadMesh/Road"
	"github.com/GrainArc/RoadMesh/Transformer"
	"github.com/GrainArc/RoadMesh/config"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

func testDB(t *testing.T) *config.Database {
	t.Helper()
	return &config.Database{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "data", "test.db")}
}

func TestRoadRecordRoundTrip(t *testing.T) {
	style := Road.Style{Width: 3, MiterLimit: 1}
	s := Road.NewSegmentFromPoints("人民路", []r3.Vector{{X: 0, Y: 0, Z: 2}, {X: 10, Y: 5, Z: 2}}, style)

	tests := []struct {
		name  string
		frame *Transformer.LocalFrame
	}{
		{"planar", nil},
		{"wgs84", Transformer.NewLocalFrame(orb.Point{116.4, 39.9})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRoadRecord("r1", s, tt.frame)
			if err != nil {
				t.Fatal(err)
			}
			if rec.UUID != s.ID.String() || rec.PointCount != 2 || rec.Height != 2 {
				t.Errorf("record = %+v", rec)
			}
			back, err := rec.Segment(tt.frame)
			if err != nil {
				t.Fatal(err)
			}
			if back.Name != s.Name || back.Style.Width != 3 || len(back.Points) != 2 {
				t.Fatalf("segment = %v", back)
			}
			for i := range s.Points {
				if back.Points[i].Sub(s.Points[i]).Norm() > 1e-6 {
					t.Errorf("point %d = %v, want %v", i, back.Points[i], s.Points[i])
				}
			}
		})
	}

	if _, err := NewRoadRecord("r1", Road.NewSegmentFromPoints("x", nil, style), nil); !errors.Is(err, Road.ErrInvalidSegment) {
		t.Errorf("err = %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	db, err := InitDB(*testDB(t))
	if err != nil {
		t.Fatal(err)
	}
	roads := []*Road.Segment{
		Road.NewSegmentFromPoints("a", []r3.Vector{{}, {X: 1}}, Road.DefaultStyle()),
		Road.NewSegmentFromPoints("b", []r3.Vector{{Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 2}}, Road.DefaultStyle()),
	}
	if err := SaveRoads(db, "r1", roads, nil); err != nil {
		t.Fatal(err)
	}
	// 再次保存覆盖旧数据
	if err := SaveRoads(db, "r1", roads, nil); err != nil {
		t.Fatal(err)
	}
	if err := SaveRoads(db, "r2", roads[:1], nil); err != nil {
		t.Fatal(err)
	}
	got, err := LoadRoads(db, "r1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "a" || len(got[1].Points) != 3 {
		t.Errorf("loaded = %v", got)
	}

	rep := Intersection.Report{
		Outcomes: []Intersection.Outcome{{Point: r2.Point{X: 1, Y: 2}, MainRoad: "a", MinorRoad: "b", Resized: true}},
		Failures: []*Intersection.JunctionError{{
			Step: Intersection.StepLocate, Kind: Geometry.ErrNotFound, Main: "a", Minor: "c", Err: errors.New("no edge"),
		}},
	}
	if err := SaveJunctions(db, "r1", rep); err != nil {
		t.Fatal(err)
	}
	all, err := ListJunctions(db, "r1", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("junctions = %v, %v", all, err)
	}
	failed, err := ListJunctions(db, "r1", "failed")
	if err != nil || len(failed) != 1 || failed[0].Step != "locate" || failed[0].MinorRoad != "c" {
		t.Fatalf("failed = %+v, %v", failed, err)
	}
	var detail map[string]any
	if err := json.Unmarshal(all[0].Detail, &detail); err != nil || detail["resized"] != true {
		t.Errorf("detail = %s", all[0].Detail)
	}
	if math.Abs(all[0].Y-2) > 1e-12 {
		t.Errorf("y = %v", all[0].Y)
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if _, err := InitDB(config.Database{Driver: "oracle"}); err == nil {
		t.Error("unknown driver accepted")
	}
}
