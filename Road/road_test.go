package Road

import (
	"testing"

	"github.com/GrainArc/RoadMesh/Geometry"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

func seg(name string, xy ...float64) *Segment {
	var pts []r3.Vector
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, r3.Vector{X: xy[i], Y: xy[i+1]})
	}
	return NewSegmentFromPoints(name, pts, DefaultStyle())
}

func xs(s *Segment) []float64 {
	var out []float64
	for _, p := range s.Points {
		out = append(out, p.X)
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name string
		a, b *Segment
		want []float64
	}{
		{"append", seg("a", 0, 0, 1, 0), seg("b", 1, 0, 2, 0), []float64{0, 1, 2}},
		{"prepend", seg("a", 1, 0, 2, 0), seg("b", 0, 0, 1, 0), []float64{0, 1, 2}},
		{"within tolerance", seg("a", 0, 0, 1, 0), seg("b", 1.3, 0, 2, 0), []float64{0, 1.3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.a.CanJoinWith(tt.b) {
				t.Fatal("CanJoinWith = false")
			}
			if !tt.a.Join(tt.b) {
				t.Fatal("Join = false")
			}
			if !equalFloats(xs(tt.a), tt.want) {
				t.Errorf("points = %v, want %v", xs(tt.a), tt.want)
			}
			if tt.b.IsValid() || len(tt.b.Points) != 0 {
				t.Errorf("absorbed segment still has %d points", len(tt.b.Points))
			}
		})
	}
}

func TestJoinRejected(t *testing.T) {
	a := seg("a", 0, 0, 1, 0)
	tests := []struct {
		name  string
		other *Segment
	}{
		{"self", a},
		{"far", seg("b", 3, 0, 4, 0)},
		{"tail to tail", seg("b", 2, 0, 1, 0)},
		{"invalid", seg("b", 1, 0)},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if a.CanJoinWith(tt.other) || a.Join(tt.other) {
				t.Error("unexpected join")
			}
			if len(a.Points) != 2 {
				t.Errorf("points changed: %v", a.Points)
			}
		})
	}
}

func TestProximityIgnoresHeight(t *testing.T) {
	pts := func(xyz ...float64) []r3.Vector {
		var out []r3.Vector
		for i := 0; i+2 < len(xyz); i += 3 {
			out = append(out, r3.Vector{X: xyz[i], Y: xyz[i+1], Z: xyz[i+2]})
		}
		return out
	}

	a := NewSegmentFromPoints("a", pts(0, 0, 0, 1, 0, 0), DefaultStyle())
	b := NewSegmentFromPoints("b", pts(1, 0, 1, 2, 0, 1), DefaultStyle())
	if !a.CanJoinWith(b) {
		t.Error("CanJoinWith = false for endpoints at different heights")
	}
	if !a.Join(b) || len(a.Points) != 3 {
		t.Errorf("join failed: %v", a.Points)
	}

	main := NewSegmentFromPoints("main", pts(-2, 0, 0, 0, 0, 0, 2, 0, 0), DefaultStyle())
	minor := NewSegmentFromPoints("minor", pts(0, 0, 3, 0, 3, 3), DefaultStyle())
	for _, mode := range []ConnectionMode{FirstMatch, NearestMatch} {
		cp, ok := main.IsConnectedWith(minor, mode)
		if !ok {
			t.Errorf("%v: IsConnectedWith = false for endpoint at different height", mode)
			continue
		}
		if cp.MainIndex != 1 || cp.MinorIndex != 0 {
			t.Errorf("%v: got %v", mode, cp)
		}
	}
}

func TestIsConnectedWith(t *testing.T) {
	main := seg("main", 0, 0, 0.3, 0, 2, 0)
	tests := []struct {
		name      string
		minor     *Segment
		mode      ConnectionMode
		ok        bool
		mainIndex int
		minorIdx  int
	}{
		{"first match", seg("minor", 0.25, 0, 0.25, 3), FirstMatch, true, 0, 0},
		{"nearest match", seg("minor", 0.25, 0, 0.25, 3), NearestMatch, true, 1, 0},
		{"minor end", seg("minor", 2, 3, 2, 0.1), FirstMatch, true, 2, 1},
		{"disjoint", seg("minor", 5, 5, 6, 6), FirstMatch, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp, ok := main.IsConnectedWith(tt.minor, tt.mode)
			if ok != tt.ok {
				t.Fatalf("ok = %v", ok)
			}
			if !ok {
				return
			}
			if cp.MainIndex != tt.mainIndex || cp.MinorIndex != tt.minorIdx || cp.Main != main || cp.Minor != tt.minor {
				t.Errorf("got %v", cp)
			}
			if cp.Location != (r2.Point{X: main.Points[cp.MainIndex].X, Y: main.Points[cp.MainIndex].Y}) {
				t.Errorf("location = %v", cp.Location)
			}
		})
	}
	if _, ok := main.IsConnectedWith(main, FirstMatch); ok {
		t.Error("road connected with itself")
	}
}

func TestMinorDirection(t *testing.T) {
	main := seg("main", -2, 0, 0, 0, 2, 0)
	tests := []struct {
		name  string
		minor *Segment
	}{
		{"starts at junction", seg("minor", 0, 0, 0, 2)},
		{"ends at junction", seg("minor", 0, 2, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp, ok := main.IsConnectedWith(tt.minor, FirstMatch)
			if !ok {
				t.Fatal("not connected")
			}
			if d := cp.MinorDirection(); d != (r2.Point{Y: 1}) {
				t.Errorf("direction = %v", d)
			}
		})
	}
}

func TestFindConnections(t *testing.T) {
	tests := []struct {
		name  string
		roads []*Segment
		want  int
	}{
		{"single road", []*Segment{seg("a", 0, 0, 1, 0, 2, 0)}, 0},
		{"no shared endpoint", []*Segment{seg("a", 0, 0, 1, 0), seg("b", 0, 5, 1, 5)}, 0},
		{"t junction", []*Segment{seg("a", -2, 0, 0, 0, 2, 0), seg("b", 0, 0, 0, 2)}, 1},
		{"shared endpoint", []*Segment{seg("a", 0, 0, 2, 0), seg("b", 2, 0, 2, 2)}, 2},
		{"crossing interiors only", []*Segment{seg("a", -2, 0, 0, 0, 2, 0), seg("b", 0, -2, 0, 0, 0, 2)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraphBuilder(DefaultOptions())
			got := g.FindConnections(tt.roads)
			if len(got) != tt.want || g.Stats().Connections != tt.want {
				t.Errorf("got %d connections: %v", len(got), got)
			}
		})
	}
}

func TestJoinFragments(t *testing.T) {
	tests := []struct {
		name   string
		frags  []*Segment
		opts   Options
		names  []string
		points []int
	}{
		{
			"same name out of order",
			[]*Segment{seg("A", 0, 0, 1, 0), seg("A", 2, 0, 3, 0), seg("A", 1, 0, 2, 0)},
			DefaultOptions(),
			[]string{"A"}, []int{4},
		},
		{
			"sorted by name",
			[]*Segment{seg("b", 0, 0, 1, 0), seg("a", 5, 5, 6, 5), seg("", 9, 9)},
			DefaultOptions(),
			[]string{"a", "b"}, []int{2, 2},
		},
		{
			"similar names",
			[]*Segment{seg("Main Street", 0, 0, 1, 0), seg("Other", 5, 5, 6, 5), seg("Main Streer", 1, 0, 2, 0)},
			DefaultOptions(),
			[]string{"Main Streer", "Other"}, []int{3, 2},
		},
		{
			"similar han names",
			[]*Segment{seg("人民路", 0, 0, 1, 0), seg("人明路", 1, 0, 2, 0)},
			DefaultOptions(),
			[]string{"人明路"}, []int{3},
		},
		{
			"different names stay apart",
			[]*Segment{seg("Alpha", 0, 0, 1, 0), seg("Omega", 1, 0, 2, 0)},
			DefaultOptions(),
			[]string{"Alpha", "Omega"}, []int{2, 2},
		},
		{
			"join across names",
			[]*Segment{seg("Alpha", 0, 0, 1, 0), seg("Omega", 1, 0, 2, 0)},
			Options{Tolerance: 0.5, JoinAcrossNames: true},
			[]string{"Alpha"}, []int{3},
		},
		{
			"simplified",
			[]*Segment{seg("A", 0, 0, 1, 0.01, 2, 0)},
			Options{Tolerance: 0.5, SimplifyTolerance: 0.1},
			[]string{"A"}, []int{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraphBuilder(tt.opts)
			roads := g.JoinFragments(tt.frags)
			if len(roads) != len(tt.names) {
				t.Fatalf("got %d roads: %v", len(roads), roads)
			}
			for i, r := range roads {
				if r.Name != tt.names[i] || len(r.Points) != tt.points[i] {
					t.Errorf("road %d = %v, want %s(%d)", i, r, tt.names[i], tt.points[i])
				}
			}
			st := g.Stats()
			if st.Fragments != len(tt.frags) || st.Roads != len(roads) {
				t.Errorf("stats = %+v", st)
			}
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b    string
		dist    int
		similar bool
	}{
		{"Main Street", "Main Street", 0, false},
		{"Main Street", "main street", 0, true},
		{"ＭＡＩＮ", "main", 0, true},
		{"ab", "ba", 1, true},
		{"Main Street", "Main Streer", 1, true},
		{"人民路", "人明路", 1, true},
		{"人民路", "解放路", 2, false},
		{"Alpha", "Omega", 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if d := NameDistance(tt.a, tt.b); d != tt.dist {
				t.Errorf("distance = %d, want %d", d, tt.dist)
			}
			if s := IsSimilarName(tt.a, tt.b); s != tt.similar {
				t.Errorf("similar = %v", s)
			}
		})
	}
	if got := NormalizeName("Ｒｏａｄ 人民"); got != "roadrenmin" {
		t.Errorf("normalized = %q", got)
	}
}

func TestSegmentTransformAndDirection(t *testing.T) {
	tr := Affine{A: 2, E: 2, C: 10, F: -1, Height: 1}
	s := NewSegment("t", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, tr, DefaultStyle())
	if s.Points[1] != (r3.Vector{X: 12, Y: -1, Z: 1}) {
		t.Errorf("transformed = %v", s.Points[1])
	}
	tests := []struct {
		index int
		want  r2.Point
	}{
		{0, r2.Point{X: 1}},
		{1, r2.Point{Y: 1}},
		{2, r2.Point{Y: 1}},
		{3, r2.Point{}},
	}
	for _, tt := range tests {
		if d := s.DirectionAt(tt.index); d != tt.want {
			t.Errorf("DirectionAt(%d) = %v, want %v", tt.index, d, tt.want)
		}
	}
}

func TestSegmentBuild(t *testing.T) {
	s := seg("a", 0, 0, 2, 0, 4, 0)
	if err := s.Build(Geometry.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !s.IsBuilt() || s.Builder.Mesh().FaceCount() != 2 {
		t.Error("mesh not built")
	}
	s.Invalidate()
	if err := s.Build(Geometry.DefaultOptions()); err == nil {
		t.Error("invalid segment built")
	}
}
