package tile_proxy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/GrainArc/RoadMesh/Transformer"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// ErrStale 加载期间有更新的任务开始，本次结果作废
var ErrStale = errors.New("stale tile generation")

// LoadResult 一次加载的结果
type LoadResult struct {
	Generation int64
	Features   []*geojson.Feature
	Loaded     int
	Cached     int
	Missing    int
}

// Loader 并发加载瓦片中的道路图层。每次 Load 递增代数，旧代的结果丢弃
type Loader struct {
	source     TileSource
	cache      *FeatureCache
	layer      string
	workers    int
	generation atomic.Int64
}

// NewLoader 创建加载器，cache 可为 nil
func NewLoader(source TileSource, cache *FeatureCache, layer string, workers int) *Loader {
	if workers <= 0 {
		workers = 4
	}
	return &Loader{source: source, cache: cache, layer: layer, workers: workers}
}

// Generation 当前代数
func (l *Loader) Generation() int64 {
	return l.generation.Load()
}

// Load 加载一组瓦片，返回按瓦片顺序拼接的要素
func (l *Loader) Load(ctx context.Context, tiles []TileCoord) (LoadResult, error) {
	gen := l.generation.Add(1)
	res := LoadResult{Generation: gen}

	perTile := make([][]*geojson.Feature, len(tiles))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, t := range tiles {
		i, t := i, t
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("瓦片 %s 处理异常: %v\n%s", t, r, debug.Stack())
				}
			}()
			features, cached, err := l.loadTile(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrTileNotFound):
				res.Missing++
				return nil
			case err != nil:
				return err
			case cached:
				res.Cached++
			default:
				res.Loaded++
			}
			perTile[i] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if cur := l.generation.Load(); cur != gen {
		log.Printf("瓦片任务 %d 已被 %d 取代", gen, cur)
		return res, ErrStale
	}

	for _, fs := range perTile {
		res.Features = append(res.Features, fs...)
	}
	log.Printf("瓦片加载完成: 读取 %d, 缓存 %d, 缺失 %d, 要素 %d", res.Loaded, res.Cached, res.Missing, len(res.Features))
	return res, nil
}

func (l *Loader) loadTile(ctx context.Context, t TileCoord) ([]*geojson.Feature, bool, error) {
	if l.cache != nil {
		if fs, ok := l.cache.Get(t); ok {
			return fs, true, nil
		}
	}
	data, err := l.source.Fetch(ctx, t)
	if err != nil {
		return nil, false, err
	}
	features, err := Transformer.DecodeTile(data, t.Maptile(), l.layer)
	if err != nil {
		return nil, false, err
	}
	if l.cache != nil {
		l.cache.Set(t, features)
	}
	return features, false, nil
}
