package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akajianguo/evemarket/server/internal/service"
)

type MarketHandler struct {
	marketService *service.MarketService
}

func NewMarketHandler(service *service.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: service,
	}
}

func (h *MarketHandler) GetHotStations(c *gin.Context) {
	c.JSON(http.StatusOK, h.marketService.HotStations(c.Request.Context()))
}
