// services/region_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GrainArc/RoadMesh/Intersection"
	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/GrainArc/RoadMesh/Road"
	"github.com/GrainArc/RoadMesh/Transformer"
	"github.com/GrainArc/RoadMesh/config"
	"github.com/GrainArc/RoadMesh/models"
	"github.com/GrainArc/RoadMesh/tile_proxy"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrRoadNotFound   = errors.New("road not found")
	ErrNoTileSource   = errors.New("tile source not configured")
	ErrPlanarRegion   = errors.New("region has no geographic frame")
)

// RegionResult 一个区域的处理结果
type RegionResult struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Stats       Road.Stats              `json:"stats"`
	Built       int                     `json:"built"`
	Resolved    int                     `json:"resolved"`
	Failed      int                     `json:"failed"`
	CreatedAt   time.Time               `json:"createdAt"`
	Frame       *Transformer.LocalFrame `json:"-"`
	Roads       []*Road.Segment         `json:"-"`
	Connections []Road.ConnectionPoint  `json:"-"`
	Report      Intersection.Report     `json:"-"`
}

// Meshes 仍持有网格的道路（被合并的次路已释放）
func (r *RegionResult) Meshes() []*Mesh.Mesh {
	var out []*Mesh.Mesh
	for _, s := range r.Roads {
		if s.IsBuilt() {
			out = append(out, s.Builder.Mesh())
		}
	}
	return out
}

// RegionService 区域处理流水线：读取片段 → 合并 → 生成网格 → 找路口 → 处理路口 → 保存
type RegionService struct {
	cfg    config.Config
	db     *gorm.DB
	loader *tile_proxy.Loader
	events *Broadcaster

	run     sync.Mutex
	mu      sync.RWMutex
	regions map[string]*RegionResult
}

// NewRegionService db 和 loader 都可以为 nil
func NewRegionService(cfg config.Config, db *gorm.DB, loader *tile_proxy.Loader) *RegionService {
	return &RegionService{
		cfg:     cfg,
		db:      db,
		loader:  loader,
		events:  NewBroadcaster(),
		regions: make(map[string]*RegionResult),
	}
}

// Events 路口事件
func (s *RegionService) Events() *Broadcaster {
	return s.events
}

// Process 处理一个区域的道路片段。同一时间只跑一个流水线
func (s *RegionService) Process(ctx context.Context, name string, fragments []*Road.Segment, frame *Transformer.LocalFrame) (*RegionResult, error) {
	s.run.Lock()
	defer s.run.Unlock()

	tuning := s.cfg.Tuning
	res := &RegionResult{ID: uuid.NewString(), Name: name, Frame: frame, CreatedAt: time.Now()}

	graph := Road.NewGraphBuilder(tuning.RoadOptions())
	res.Roads = graph.JoinFragments(fragments)

	geomOpts := tuning.GeometryOptions()
	for _, road := range res.Roads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := road.Build(geomOpts); err != nil {
			continue
		}
		res.Built++
	}

	res.Connections = graph.FindConnections(res.Roads)
	res.Stats = graph.Stats()

	resolver := Intersection.NewResolver(tuning.ResolverOptions())
	resolver.OnResult = func(o Intersection.Outcome, err error) {
		e := JunctionEvent{Type: "junction", Region: name}
		var jerr *Intersection.JunctionError
		if errors.As(err, &jerr) {
			e.Step, e.Error = jerr.Step.String(), jerr.Error()
		} else {
			out := o
			e.Outcome = &out
		}
		s.events.Publish(e)
	}
	res.Report = resolver.ResolveGroups(Intersection.GroupConnections(res.Connections))
	res.Resolved, res.Failed = len(res.Report.Outcomes), len(res.Report.Failures)

	log.Printf("Summary %d -> %d, 路口 %d (成功 %d, 失败 %d)",
		res.Stats.Fragments, res.Stats.Roads, len(res.Connections), res.Resolved, res.Failed)
	s.events.Publish(JunctionEvent{Type: "summary", Region: name,
		Message: fmt.Sprintf("%d -> %d, resolved %d, failed %d", res.Stats.Fragments, res.Stats.Roads, res.Resolved, res.Failed)})

	if s.db != nil {
		if err := models.SaveRoads(s.db, name, res.Roads, frame); err != nil {
			log.Printf("保存道路失败: %v", err)
			return res, err
		}
		if err := models.SaveJunctions(s.db, name, res.Report); err != nil {
			log.Printf("保存路口日志失败: %v", err)
			return res, err
		}
	}

	s.mu.Lock()
	s.regions[name] = res
	s.mu.Unlock()
	return res, nil
}

func (s *RegionService) readOptions(frame *Transformer.LocalFrame) Transformer.ReadOptions {
	opts := Transformer.DefaultReadOptions()
	opts.Style = s.cfg.Tuning.Style
	opts.Frame = frame
	return opts
}

// ProcessGeojson 处理 GeoJSON。geographic 为 true 时坐标按经纬度处理，以范围中心建立局部坐标系
func (s *RegionService) ProcessGeojson(ctx context.Context, name string, data []byte, geographic bool) (*RegionResult, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("解析GeoJSON失败: %w", err)
	}
	return s.processFeatures(ctx, name, fc.Features, geographic)
}

// ProcessTiles 加载范围内的瓦片并处理
func (s *RegionService) ProcessTiles(ctx context.Context, name string, bound orb.Bound, zoom int) (*RegionResult, error) {
	if s.loader == nil {
		return nil, ErrNoTileSource
	}
	tiles := tile_proxy.TileRangeForBound(bound, zoom).Tiles()
	loaded, err := s.loader.Load(ctx, tiles)
	if err != nil {
		return nil, err
	}
	frame := Transformer.FrameForBound(bound)
	return s.Process(ctx, name, Transformer.FeaturesToSegments(loaded.Features, s.readOptions(frame)), frame)
}

// ProcessShapefile 处理线 shapefile
func (s *RegionService) ProcessShapefile(ctx context.Context, name, path string, geographic bool) (*RegionResult, error) {
	features, err := Transformer.ShpToFeatures(path)
	if err != nil {
		return nil, err
	}
	return s.processFeatures(ctx, name, features, geographic)
}

func (s *RegionService) processFeatures(ctx context.Context, name string, features []*geojson.Feature, geographic bool) (*RegionResult, error) {
	var frame *Transformer.LocalFrame
	if geographic {
		if b, ok := Transformer.BoundOf(features); ok {
			frame = Transformer.FrameForBound(b)
		}
	}
	return s.Process(ctx, name, Transformer.FeaturesToSegments(features, s.readOptions(frame)), frame)
}

// ProcessDir 处理数据目录下所有 GeoJSON 和 shapefile，每个文件一个区域
func (s *RegionService) ProcessDir(ctx context.Context, dir string, geographic bool) ([]*RegionResult, error) {
	files, err := Transformer.FindFiles(dir, "geojson", "json", "shp")
	if err != nil {
		return nil, err
	}
	var out []*RegionResult
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		var res *RegionResult
		if strings.EqualFold(filepath.Ext(path), ".shp") {
			res, err = s.ProcessShapefile(ctx, name, path, geographic)
		} else {
			var data []byte
			if data, err = os.ReadFile(path); err != nil {
				return out, err
			}
			res, err = s.ProcessGeojson(ctx, name, data, geographic)
		}
		if err != nil {
			log.Printf("区域 %s 处理失败: %v", name, err)
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// Region 查找已处理的区域
func (s *RegionService) Region(name string) (*RegionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.regions[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrRegionNotFound)
	}
	return res, nil
}

// Regions 已处理区域，按名称排序
func (s *RegionService) Regions() []*RegionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*RegionResult, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MeshGeojson 区域网格
func (s *RegionService) MeshGeojson(name string) (*geojson.FeatureCollection, error) {
	res, err := s.Region(name)
	if err != nil {
		return nil, err
	}
	return Transformer.MeshesToGeojson(res.Meshes(), res.Frame), nil
}

// MeshTile 区域网格的矢量瓦片，只有经纬度区域可以切片
func (s *RegionService) MeshTile(name string, z, x, y int) ([]byte, error) {
	res, err := s.Region(name)
	if err != nil {
		return nil, err
	}
	if res.Frame == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrPlanarRegion)
	}
	tile := tile_proxy.TileCoord{Z: z, X: x, Y: y}
	bound := tile_proxy.GetTileBoundsWGS84(z, x, y)
	fc := geojson.NewFeatureCollection()
	for _, f := range Transformer.MeshesToGeojson(res.Meshes(), res.Frame).Features {
		if f.Geometry.Bound().Intersects(bound) {
			fc.Append(f)
		}
	}
	return Transformer.EncodeTile(fc, tile.Maptile(), "mesh")
}

// JunctionGeojson 区域路口
func (s *RegionService) JunctionGeojson(name string) (*geojson.FeatureCollection, error) {
	res, err := s.Region(name)
	if err != nil {
		return nil, err
	}
	return Transformer.OutcomesToGeojson(res.Report.Outcomes, res.Report.Failures, res.Frame), nil
}

// RoadBuffers 某条道路的渲染缓冲
func (s *RegionService) RoadBuffers(region, road string, uvScale float64) (Mesh.Buffers, error) {
	res, err := s.Region(region)
	if err != nil {
		return Mesh.Buffers{}, err
	}
	for _, r := range res.Roads {
		if r.Name == road && r.IsBuilt() {
			return r.Builder.Buffers(uvScale)
		}
	}
	return Mesh.Buffers{}, fmt.Errorf("%s/%s: %w", region, road, ErrRoadNotFound)
}

// Junctions 数据库中的路口日志
func (s *RegionService) Junctions(region, status string) ([]models.JunctionRecord, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}
	return models.ListJunctions(s.db, region, status)
}

// Reload 从数据库重新读取区域的道路并处理
func (s *RegionService) Reload(ctx context.Context, region string) (*RegionResult, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}
	var frame *Transformer.LocalFrame
	if res, err := s.Region(region); err == nil {
		frame = res.Frame
	} else if frame, err = models.RegionFrame(s.db, region); err != nil {
		return nil, err
	}
	roads, err := models.LoadRoads(s.db, region, frame)
	if err != nil {
		return nil, err
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("%s: %w", region, ErrRegionNotFound)
	}
	return s.Process(ctx, region, roads, frame)
}
