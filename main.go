package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaurydelille/SWP391BE/api"
	"github.com/amaurydelille/SWP391BE/internal/checkout"
	"github.com/amaurydelille/SWP391BE/internal/checkout/postgres"
	"github.com/amaurydelille/SWP391BE/internal/config"
	"github.com/amaurydelille/SWP391BE/internal/events"
	eventskafka "github.com/amaurydelille/SWP391BE/internal/events/kafka"
)

func main() {
	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	stores, err := buildStores(cfg)
	if err != nil {
		panic(fmt.Errorf("error initializing storage: %v", err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := eventskafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	}

	service := checkout.NewService(stores, publisher, logger, cfg.PlatformAccountID)

	r := gin.Default()
	api.InitRoutes(r, service, logger)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}

// buildStores picks postgres when a DSN is configured and falls back to the
// in-memory stores otherwise.
func buildStores(cfg config.Config) (checkout.Stores, error) {
	if cfg.PostgresDSN == "" {
		return checkout.NewMemoryStores(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return checkout.Stores{}, err
	}
	return postgres.NewStores(db), nil
}
