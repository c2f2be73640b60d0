package routers

import (
	"github.com/GrainArc/RoadMesh/services"
	"github.com/GrainArc/RoadMesh/views"
	"github.com/gin-gonic/gin"
)

func RoadRouters(r *gin.Engine, svc *services.RegionService) {
	regionHandler := views.NewRegionHandler(svc)
	roadRouter := r.Group("/road")
	{
		roadRouter.POST("/Upload", regionHandler.Upload)
		roadRouter.POST("/Tiles", regionHandler.Tiles)
		roadRouter.GET("/Regions", regionHandler.List)
		roadRouter.GET("/Tile/:name/:z/:x/:y.pbf", regionHandler.MeshTile)
	}
	{
		roadRouter.GET("/Region/:name", regionHandler.Get)
		roadRouter.GET("/Region/:name/mesh", regionHandler.Mesh)
		roadRouter.GET("/Region/:name/junctions", regionHandler.JunctionPoints)
		roadRouter.GET("/Region/:name/records", regionHandler.JunctionRecords)
		roadRouter.GET("/Region/:name/buffers/:road", regionHandler.Buffers)
		roadRouter.POST("/Region/:name/reload", regionHandler.Reload)
	}
	// GET用于WebSocket连接
	roadRouter.GET("/Events/ws", regionHandler.Events)
}

// NewEngine 创建带全部路由的 gin 实例
func NewEngine(svc *services.RegionService) *gin.Engine {
	r := gin.Default()
	RoadRouters(r, svc)
	return r
}
