package main

import (
	"fmt"
	"log"

	"github.com/akajianguo/evemarket/configs"
	"github.com/akajianguo/evemarket/internal/cache"
	"github.com/akajianguo/evemarket/server/internal/handler"
	"github.com/akajianguo/evemarket/server/internal/router"
	"github.com/akajianguo/evemarket/server/internal/service"
)

func main() {
	cfg := configs.AppLoad()

	redisCache, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	marketService := service.NewMarketService(redisCache)
	marketHandler := handler.NewMarketHandler(marketService)

	routerConfig := &router.Config{
		MarketHandler: marketHandler,
	}

	router := router.NewRouter(routerConfig)

	router.Run(fmt.Sprintf(":%s", cfg.ServerPort))
}
