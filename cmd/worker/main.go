package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/osagie/go-crm-backend.git/internal/apiclient"
	"github.com/osagie/go-crm-backend.git/internal/config"
	"github.com/osagie/go-crm-backend.git/internal/crm"
	"github.com/osagie/go-crm-backend.git/internal/jobs"
	kafkax "github.com/osagie/go-crm-backend.git/internal/kafka"
	"github.com/osagie/go-crm-backend.git/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (job locks)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	j := &jobs.Jobs{
		API:       apiclient.New(cfg.APIBaseURL),
		Locker:    &redisx.Locker{RDB: rdb},
		Heartbeat: jobs.NewLogbook(cfg.HeartbeatLog),
		LowStock:  jobs.NewLogbook(cfg.LowStockLog),
		Report:    jobs.NewLogbook(cfg.ReportLog),
		Reminders: jobs.NewLogbook(cfg.ReminderLog),
	}

	sched, err := j.NewCron(ctx, jobs.Schedule{
		Heartbeat: cfg.HeartbeatSpec,
		LowStock:  cfg.LowStockSpec,
		Report:    cfg.ReportSpec,
		Reminders: cfg.ReminderSpec,
	})
	if err != nil {
		log.Fatalf("cron: %v", err)
	}
	sched.Start()
	log.Printf("worker scheduled: heartbeat=%q low_stock=%q report=%q reminders=%q",
		cfg.HeartbeatSpec, cfg.LowStockSpec, cfg.ReportSpec, cfg.ReminderSpec)

	// Order-confirmation consumer
	confirmer := &jobs.Confirmer{Log: jobs.NewLogbook(cfg.ConfirmLog)}
	group := getenv("CONFIRM_GROUP", "crm-worker")
	workers := mustAtoi(os.Getenv("CONFIRM_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, crm.TopicOrderCreated, workers)

	go func() {
		log.Printf("confirmation consumer started: group=%s topic=%s workers=%d",
			group, crm.TopicOrderCreated, workers)
		if err := cons.Start(ctx, confirmer.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down worker...")

	stopCtx := sched.Stop() // wait for in-flight jobs
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	cancel()
	time.Sleep(500 * time.Millisecond)
}
