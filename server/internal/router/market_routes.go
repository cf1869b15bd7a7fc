package router

import (
	"github.com/gin-gonic/gin"

	"github.com/akajianguo/evemarket/server/internal/handler"
)

func registerMarketRoutes(router *gin.RouterGroup, marketHandler *handler.MarketHandler) {
	market := router.Group("/market")
	{
		market.GET("/hot-stations", marketHandler.GetHotStations)
	}
}
