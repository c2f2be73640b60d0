package tile_proxy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrTileNotFound 数据源中没有该瓦片
var ErrTileNotFound = errors.New("tile not found")

// TileSource 矢量瓦片数据源
type TileSource interface {
	Fetch(ctx context.Context, t TileCoord) ([]byte, error)
}

// DirSource 按 {root}/{z}/{x}/{y}.{ext} 组织的本地瓦片目录
type DirSource struct {
	Root string
	Exts []string
}

// NewDirSource 默认查找 .mvt 和 .pbf
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root, Exts: []string{"mvt", "pbf"}}
}

// Fetch 读取瓦片文件
func (s *DirSource) Fetch(ctx context.Context, t TileCoord) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Root, strconv.Itoa(t.Z), strconv.Itoa(t.X))
	for _, ext := range s.Exts {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.%s", t.Y, ext)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", t, ErrTileNotFound)
}
