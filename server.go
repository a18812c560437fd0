package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"pixelgram/api/middleware"
	"pixelgram/api/routes"
	"pixelgram/config"
	"pixelgram/db"
	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis не обязателен: без него лента читается из базы,
	// а fan-out идет синхронно
	if err := services.InitRedis(); err != nil {
		log.Printf("WARN: Redis unavailable, feed cache and fan-out queue disabled: %v", err)
	} else {
		defer services.CloseRedis()
		services.QueueServiceInstance.StartWorkers(ctx)
	}

	// RabbitMQ тоже не обязателен: push уйдет напрямую в локальные
	// WebSocket-соединения
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("WARN: RabbitMQ unavailable, live push is local-only: %v", err)
	} else {
		defer services.CloseRabbitMQ()
		if err := services.StartNotifyConsumer(ctx); err != nil {
			log.Printf("WARN: failed to start notify consumer: %v", err)
		}
	}

	defer services.GlobalWSConnManager.CloseAll()

	router := gin.Default()
	router.Use(middleware.PrometheusMiddleware("pixelgram"))
	routes.PublicApi(router)

	addr := ":8080"
	if config.AppConfig.Backend.Port != 0 {
		addr = fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
