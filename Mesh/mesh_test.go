package Mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

const eps = 1e-9

func near(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < 1e-6
}

func line(xy ...float64) []r3.Vector {
	var pts []r3.Vector
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, r3.Vector{X: xy[i], Y: xy[i+1]})
	}
	return pts
}

func signedArea(m *Mesh, f *Face) float64 {
	var s float64
	for i, a := range f.Indexes {
		b := f.Indexes[(i+1)%len(f.Indexes)]
		pa, pb := m.Positions[a], m.Positions[b]
		s += pa.X*pb.Y - pb.X*pa.Y
	}
	return s / 2
}

func TestBuildStripLayout(t *testing.T) {
	pts := line(0, 0, 2, 0, 4, 0)
	m, err := BuildStrip("main", pts, DefaultStripOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Positions) != 6 || m.FaceCount() != 2 {
		t.Fatalf("got %d vertices %d faces", len(m.Positions), m.FaceCount())
	}
	for i, p := range pts {
		c := m.Positions[2*i].Add(m.Positions[2*i+1]).Mul(0.5)
		if !near(c, p) {
			t.Errorf("cross edge %d center %v, want %v", i, c, p)
		}
	}
	if !near(m.Positions[0], r3.Vector{X: 0, Y: -0.5}) || !near(m.Positions[1], r3.Vector{X: 0, Y: 0.5}) {
		t.Errorf("unexpected first cross edge %v %v", m.Positions[0], m.Positions[1])
	}
	for _, f := range m.Faces {
		if signedArea(m, f) <= 0 {
			t.Errorf("face %d is not counter-clockwise", f.ID)
		}
	}
	if n := len(m.UniqueEdges()); n != 7 {
		t.Errorf("unique edges = %d, want 7", n)
	}
	if m.IsBorder(Edge{A: 2, B: 3}) {
		t.Error("inner cross edge reported as border")
	}
	if !m.IsBorder(Edge{A: 1, B: 0}) {
		t.Error("cap edge should be a border edge")
	}
}

func TestBuildStripExtrusion(t *testing.T) {
	m, err := BuildStrip("lifted", []r3.Vector{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}}, StripOptions{Width: 2, Extrusion: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range m.Positions {
		if math.Abs(p.Z-1.25) > eps {
			t.Errorf("vertex %d z = %f", i, p.Z)
		}
	}
	if !near(m.Positions[1], r3.Vector{X: 0, Y: 1, Z: 1.25}) {
		t.Errorf("left vertex = %v", m.Positions[1])
	}
}

func TestBuildStripMiter(t *testing.T) {
	pts := line(0, 0, 1, 0, 1, 1)
	tests := []struct {
		name  string
		limit float64
		left  r3.Vector
	}{
		{"unlimited", 0, r3.Vector{X: 0.5, Y: 0.5}},
		{"clamped", 1, r3.Vector{X: 1 - 0.5/math.Sqrt2, Y: 0.5 / math.Sqrt2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildStrip("corner", pts, StripOptions{Width: 1, MiterLimit: tt.limit})
			if err != nil {
				t.Fatal(err)
			}
			if !near(m.Positions[3], tt.left) {
				t.Errorf("corner left vertex = %v, want %v", m.Positions[3], tt.left)
			}
		})
	}
}

func TestBuildStripDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []r3.Vector
		opts StripOptions
	}{
		{"single point", line(1, 1), DefaultStripOptions()},
		{"coincident points", line(1, 1, 1, 1, 1, 1), DefaultStripOptions()},
		{"zero width", line(0, 0, 1, 0), StripOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildStrip("bad", tt.pts, tt.opts); !errors.Is(err, ErrDegenerate) {
				t.Errorf("err = %v, want ErrDegenerate", err)
			}
		})
	}
}

func TestDistinctPoints(t *testing.T) {
	got := DistinctPoints([]r3.Vector{{X: 0}, {X: 0, Z: 3}, {X: 1}, {X: 1}, {X: 0}})
	if len(got) != 3 {
		t.Fatalf("got %d points: %v", len(got), got)
	}
}

func TestBevelInternalEdge(t *testing.T) {
	m, _ := BuildStrip("main", line(-4, 0, -2, 0, 0, 0, 2, 0, 4, 0), DefaultStripOptions())
	f, err := BevelEdge(m, Edge{A: 4, B: 5}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if m.FaceCount() != 5 || len(m.Positions) != 14 {
		t.Fatalf("got %d faces %d vertices", m.FaceCount(), len(m.Positions))
	}
	want := []r3.Vector{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}}
	for i, idx := range f.Indexes {
		if !near(m.Positions[idx], want[i]) {
			t.Errorf("bevel vertex %d = %v, want %v", i, m.Positions[idx], want[i])
		}
	}
	if signedArea(m, f) <= 0 {
		t.Error("bevel face is not counter-clockwise")
	}
	for _, face := range m.Faces {
		if face.Contains(4) || face.Contains(5) {
			t.Errorf("face %d still uses the cut vertices", face.ID)
		}
	}
	if m.IsBorder(Edge{A: f.Indexes[1], B: f.Indexes[2]}) {
		t.Error("bevel side edge should be shared with the neighbouring face")
	}
	if !m.IsBorder(Edge{A: f.Indexes[2], B: f.Indexes[3]}) {
		t.Error("bevel top edge should be a border edge")
	}
}

func TestBevelCapEdge(t *testing.T) {
	m, _ := BuildStrip("short", line(0, 0, 2, 0), DefaultStripOptions())
	f, err := BevelEdge(m, Edge{A: 0, B: 1}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if m.FaceCount() != 2 || len(m.Positions) != 6 {
		t.Fatalf("got %d faces %d vertices", m.FaceCount(), len(m.Positions))
	}
	if !f.Contains(0) || !f.Contains(1) {
		t.Errorf("cap bevel should keep the original vertices: %v", f.Indexes)
	}
	if signedArea(m, f) <= 0 {
		t.Error("cap bevel face is not counter-clockwise")
	}
}

func TestBevelRejected(t *testing.T) {
	tests := []struct {
		name   string
		edge   Edge
		amount float64
		want   error
	}{
		{"side too short", Edge{A: 2, B: 3}, 0.5, ErrBevelRejected},
		{"zero amount", Edge{A: 2, B: 3}, 0, ErrBevelRejected},
		{"missing edge", Edge{A: 0, B: 5}, 0.1, ErrEdgeNotFound},
		{"degenerate edge", Edge{A: 2, B: 2}, 0.1, ErrBevelRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := BuildStrip("tight", line(0, 0, 0.4, 0, 0.8, 0), DefaultStripOptions())
			before := m.Clone()
			if _, err := BevelEdge(m, tt.edge, tt.amount); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(m.Positions) != len(before.Positions) || m.FaceCount() != before.FaceCount() {
				t.Error("rejected bevel mutated the mesh")
			}
		})
	}
}

func TestMergeFaces(t *testing.T) {
	m, _ := BuildStrip("main", line(0, 0, 1, 0, 2, 0, 3, 0), DefaultStripOptions())
	if _, err := MergeFaces(m, m.Faces[0], m.Faces[2]); !errors.Is(err, ErrMergeRejected) {
		t.Fatalf("non-adjacent merge err = %v", err)
	}
	f, err := MergeFaces(m, m.Faces[0], m.Faces[1])
	if err != nil {
		t.Fatal(err)
	}
	if f.ID != 0 || m.FaceCount() != 2 {
		t.Fatalf("merged face %d, %d faces left", f.ID, m.FaceCount())
	}
	want := []int{3, 1, 0, 2, 4, 5}
	if len(f.Indexes) != len(want) {
		t.Fatalf("loop = %v, want %v", f.Indexes, want)
	}
	for i := range want {
		if f.Indexes[i] != want[i] {
			t.Fatalf("loop = %v, want %v", f.Indexes, want)
		}
	}
	if signedArea(m, f) <= 0 {
		t.Error("merged face is not counter-clockwise")
	}
}

func TestTranslateVertices(t *testing.T) {
	m, _ := BuildStrip("main", line(0, 0, 1, 0), DefaultStripOptions())
	TranslateVertices(m, []int{0, 0, 1, 99}, r3.Vector{X: 1})
	if !near(m.Positions[0], r3.Vector{X: 1, Y: -0.5}) || !near(m.Positions[1], r3.Vector{X: 1, Y: 0.5}) {
		t.Errorf("positions = %v", m.Positions[:2])
	}
}

func TestCombineAndWeld(t *testing.T) {
	a, _ := BuildStrip("a", line(0, 0, 1, 0), DefaultStripOptions())
	b, _ := BuildStrip("b", line(1, 0, 2, 0), DefaultStripOptions())
	c := CombineMeshes(a, nil, b)
	if c.Name != "a" || c.FaceCount() != 2 || len(c.Positions) != 8 {
		t.Fatalf("combined %q: %d faces %d vertices", c.Name, c.FaceCount(), len(c.Positions))
	}
	if c.Faces[0].ID != 0 || c.Faces[1].ID != 1 {
		t.Errorf("face ids = %d, %d", c.Faces[0].ID, c.Faces[1].ID)
	}
	if c.Faces[1].Indexes[0] != 4 {
		t.Errorf("second mesh not offset: %v", c.Faces[1].Indexes)
	}
	if n := WeldVertices(c, 0.2); n != 2 {
		t.Fatalf("welded %d vertices, want 2", n)
	}
	if len(c.UsedVertices()) != 6 || c.FaceCount() != 2 {
		t.Errorf("after weld: %d used vertices %d faces", len(c.UsedVertices()), c.FaceCount())
	}
	if c.IsBorder(Edge{A: 2, B: 3}) {
		t.Error("welded seam should be shared by both faces")
	}
	if n := WeldVertices(c, 0.2); n != 0 {
		t.Errorf("second weld merged %d", n)
	}
}

func TestWeldDropsDegenerateFaces(t *testing.T) {
	m := New("sliver")
	a := m.AddVertex(r3.Vector{})
	b := m.AddVertex(r3.Vector{X: 0.05})
	c := m.AddVertex(r3.Vector{X: 1, Y: 1})
	m.AddFace(a, b, c)
	if n := WeldVertices(m, 0.2); n != 1 {
		t.Fatalf("merged %d", n)
	}
	if m.FaceCount() != 0 {
		t.Errorf("degenerate face kept: %v", m.Faces[0].Indexes)
	}
}

func TestToBuffers(t *testing.T) {
	m, _ := BuildStrip("main", line(0, 0, 2, 0, 4, 0), DefaultStripOptions())
	DeleteFace(m, m.Faces[1])
	buf := ToBuffers(m, 2)
	if len(buf.Vertices) != 4 || len(buf.UVs) != 4 {
		t.Fatalf("got %d vertices %d uvs", len(buf.Vertices), len(buf.UVs))
	}
	if len(buf.Submeshes) != 1 || len(buf.Submeshes[0]) != 6 {
		t.Fatalf("submeshes = %v", buf.Submeshes)
	}
	for _, idx := range buf.Submeshes[0] {
		if idx < 0 || idx >= len(buf.Vertices) {
			t.Errorf("index %d out of range", idx)
		}
	}
	if math.Abs(buf.UVs[2].X-1) > eps {
		t.Errorf("uv = %v", buf.UVs[2])
	}
}

func TestFaceCenter(t *testing.T) {
	m, _ := BuildStrip("main", line(0, 0, 2, 0), DefaultStripOptions())
	if c := m.FaceCenter(m.Faces[0]); !near(c, r3.Vector{X: 1}) {
		t.Errorf("center = %v", c)
	}
}
