package views

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/GrainArc/RoadMesh/services"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

// RegionHandler 道路区域处理接口
type RegionHandler struct {
	svc *services.RegionService
}

func NewRegionHandler(svc *services.RegionService) *RegionHandler {
	return &RegionHandler{svc: svc}
}

// TileRequest 按范围加载瓦片处理
type TileRequest struct {
	Name  string    `json:"name" binding:"required"`
	Bound []float64 `json:"bound"` // minLon, minLat, maxLon, maxLat
	Zoom  int       `json:"zoom"`
}

// BufferResponse 渲染缓冲，扁平数组便于前端直接上传 GPU
type BufferResponse struct {
	Road      string    `json:"road"`
	Positions []float64 `json:"positions"`
	UVs       []float64 `json:"uvs"`
	Submeshes [][]int   `json:"submeshes"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrRegionNotFound), errors.Is(err, services.ErrRoadNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoTileSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrPlanarRegion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Upload 上传 GeoJSON，支持 multipart 的 file 字段或直接放在请求体
func (h *RegionHandler) Upload(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(400, gin.H{"error": "name required"})
		return
	}
	geographic, _ := strconv.ParseBool(c.DefaultQuery("geographic", "false"))

	var data []byte
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
	} else {
		if data, err = c.GetRawData(); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
	}
	if len(data) == 0 {
		c.JSON(400, gin.H{"error": "empty body"})
		return
	}

	res, err := h.svc.ProcessGeojson(c.Request.Context(), name, data, geographic)
	if err != nil {
		log.Printf("区域 %s 上传处理失败: %v", name, err)
		if res == nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Tiles 从瓦片源读取范围内道路
func (h *RegionHandler) Tiles(c *gin.Context) {
	var req TileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if len(req.Bound) != 4 || req.Bound[0] >= req.Bound[2] || req.Bound[1] >= req.Bound[3] {
		c.JSON(400, gin.H{"error": "invalid bound"})
		return
	}
	if req.Zoom <= 0 {
		req.Zoom = 14
	}
	bound := orb.Bound{Min: orb.Point{req.Bound[0], req.Bound[1]}, Max: orb.Point{req.Bound[2], req.Bound[3]}}
	res, err := h.svc.ProcessTiles(c.Request.Context(), req.Name, bound, req.Zoom)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// List 已处理区域
func (h *RegionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Regions())
}

// Get 区域概况
func (h *RegionHandler) Get(c *gin.Context) {
	res, err := h.svc.Region(c.Param("name"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Mesh 区域网格 GeoJSON
func (h *RegionHandler) Mesh(c *gin.Context) {
	fc, err := h.svc.MeshGeojson(c.Param("name"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fc)
}

// MeshTile 区域网格矢量瓦片
func (h *RegionHandler) MeshTile(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(c.Param("y.pbf"), ".pbf"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(400, gin.H{"error": "invalid tile"})
		return
	}
	data, err := h.svc.MeshTile(c.Param("name"), z, x, y)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "public, max-age=0")
	c.Data(http.StatusOK, "application/x-protobuf", data)
}

// JunctionPoints 路口处理结果 GeoJSON
func (h *RegionHandler) JunctionPoints(c *gin.Context) {
	fc, err := h.svc.JunctionGeojson(c.Param("name"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fc)
}

// JunctionRecords 数据库中的路口日志
func (h *RegionHandler) JunctionRecords(c *gin.Context) {
	records, err := h.svc.Junctions(c.Param("name"), c.Query("status"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Buffers 某条道路的顶点、UV、三角形
func (h *RegionHandler) Buffers(c *gin.Context) {
	uv, err := strconv.ParseFloat(c.DefaultQuery("uv", "1"), 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid uv"})
		return
	}
	road := c.Param("road")
	buf, err := h.svc.RoadBuffers(c.Param("name"), road, uv)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	resp := BufferResponse{
		Road:      road,
		Positions: make([]float64, 0, len(buf.Vertices)*3),
		UVs:       make([]float64, 0, len(buf.UVs)*2),
		Submeshes: buf.Submeshes,
	}
	for _, v := range buf.Vertices {
		resp.Positions = append(resp.Positions, v.X, v.Y, v.Z)
	}
	for _, t := range buf.UVs {
		resp.UVs = append(resp.UVs, t.X, t.Y)
	}
	c.JSON(http.StatusOK, resp)
}

// Reload 从数据库重新处理
func (h *RegionHandler) Reload(c *gin.Context) {
	res, err := h.svc.Reload(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
