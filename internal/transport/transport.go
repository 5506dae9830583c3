package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/tallyfy/denizen-assets/internal/transport/middleware"
)

func InitRoutes(assetHandler *AssetHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	router.POST("/assets", assetHandler.UploadAsset)
	router.GET("/assets/:name", assetHandler.GetAsset)
	router.POST("/runs", assetHandler.RunBatch)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "resize-assets",
		})
	})
	return router
}
