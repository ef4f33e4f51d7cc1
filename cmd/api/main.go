package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/osagie/go-crm-backend.git/internal/config"
	"github.com/osagie/go-crm-backend.git/internal/crm"
	"github.com/osagie/go-crm-backend.git/internal/httpx"
	kafkax "github.com/osagie/go-crm-backend.git/internal/kafka"
	"github.com/osagie/go-crm-backend.git/internal/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Kafka producers (satu per topic)
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, crm.TopicOrderCreated, 1024)
	orderProd.Start(ctx)
	stockProd := kafkax.NewProducer(cfg.KafkaBrokers, crm.TopicProductRestocked, 1024)
	stockProd.Start(ctx)

	// Service & handler
	svc := &crm.Service{
		Store:       &postgres.Store{DB: db},
		OrderEvents: orderProd,
		StockEvents: stockProd,
		Name:        cfg.ServiceName,
	}
	router := httpx.NewRouter()
	h := &httpx.CRMHandler{Service: svc}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	orderProd.Close() // tutup inbox -> flush & close writer
	stockProd.Close()
	cancel()
	orderProd.WaitClosed()
	stockProd.WaitClosed()
}
