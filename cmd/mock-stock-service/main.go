package main

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/order-submission-service/internal/config"
	"github.com/dmehra2102/order-submission-service/internal/stock/mock"
	"github.com/dmehra2102/order-submission-service/pkg/logging"
	"github.com/dmehra2102/order-submission-service/pkg/shutdown"
)

func main() {
	log := logging.New()
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load()

	srv := &http.Server{
		Addr:         cfg.MockStockAddr,
		Handler:      mock.NewServer(log, nil).Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("mock stock service listening", "addr", cfg.MockStockAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("mock-stock-service shutdown")
}
