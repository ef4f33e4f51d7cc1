// Package jobs holds the scheduled maintenance jobs: heartbeat,
// low-stock replenishment, weekly report and order reminders. Every
// job consumes the HTTP API and degrades to an ERROR log line when the
// API is unreachable; a failing job never crashes the worker.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/osagie/go-crm-backend.git/internal/apiclient"
)

const (
	heartbeatStamp = "02/01/2006-15:04:05"
	plainStamp     = "2006-01-02 15:04:05"

	reminderWindow = 7 * 24 * time.Hour
)

// Locker serializes a job across worker replicas. A nil Locker means
// always run.
type Locker interface {
	Acquire(ctx context.Context, job string) (bool, error)
	Release(ctx context.Context, job string) error
}

type Jobs struct {
	API    *apiclient.Client
	Locker Locker

	Heartbeat *Logbook
	LowStock  *Logbook
	Report    *Logbook
	Reminders *Logbook
}

// withLock runs fn under the distributed job lock, or skips the run when
// another replica holds it.
func (j *Jobs) withLock(ctx context.Context, name string, fn func(context.Context) error) error {
	if j.Locker != nil {
		ok, err := j.Locker.Acquire(ctx, name)
		if err != nil {
			log.Printf("job %s: lock: %v", name, err)
			// lock backend down: run anyway, jobs are idempotent enough
		} else if !ok {
			log.Printf("job %s: held elsewhere, skipping", name)
			return nil
		} else {
			defer func() { _ = j.Locker.Release(ctx, name) }()
		}
	}
	return fn(ctx)
}

// RunHeartbeat pings /healthz and records that the CRM is alive.
func (j *Jobs) RunHeartbeat(ctx context.Context) error {
	return j.withLock(ctx, "heartbeat", func(ctx context.Context) error {
		ts := time.Now().Format(heartbeatStamp)
		msg, err := j.API.Health(ctx)
		if err != nil {
			return j.Heartbeat.Appendf("%s CRM is alive - API check failed: %v", ts, err)
		}
		return j.Heartbeat.Appendf("%s CRM is alive - API says: %s", ts, msg)
	})
}

// RunLowStock triggers the restock mutation and records what changed.
func (j *Jobs) RunLowStock(ctx context.Context) error {
	return j.withLock(ctx, "low_stock", func(ctx context.Context) error {
		ts := time.Now().Format(plainStamp)
		res, err := j.API.RestockLow(ctx)
		if err != nil {
			return j.LowStock.Appendf("%s - ERROR: %v", ts, err)
		}
		if err := j.LowStock.Appendf("%s - %s", ts, res.Message); err != nil {
			return err
		}
		for _, p := range res.UpdatedProducts {
			if err := j.LowStock.Appendf("    %s -> Stock: %d", p.Name, p.Stock); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunReport appends the weekly aggregate line.
func (j *Jobs) RunReport(ctx context.Context) error {
	return j.withLock(ctx, "report", func(ctx context.Context) error {
		ts := time.Now().Format(plainStamp)
		sum, err := j.API.Summary(ctx)
		if err != nil {
			return j.Report.Appendf("%s - ERROR: %v", ts, err)
		}
		return j.Report.Appendf("%s - Report: %d customers, %d orders, %s revenue",
			ts, sum.Customers, sum.Orders, formatCents(sum.RevenueCents))
	})
}

// RunReminders logs one line per pending order from the last 7 days.
func (j *Jobs) RunReminders(ctx context.Context) error {
	return j.withLock(ctx, "reminders", func(ctx context.Context) error {
		ts := time.Now().Format(plainStamp)
		since := time.Now().Add(-reminderWindow)
		orders, err := j.API.PendingOrdersSince(ctx, since)
		if err != nil {
			return j.Reminders.Appendf("%s - ERROR: %v", ts, err)
		}
		for _, o := range orders {
			if err := j.Reminders.Appendf("%s - Order ID: %s, Customer Email: %s",
				ts, o.ID, o.CustomerEmail); err != nil {
				return err
			}
		}
		log.Printf("order reminders processed: %d pending", len(orders))
		return nil
	})
}

type Schedule struct {
	Heartbeat string
	LowStock  string
	Report    string
	Reminders string
}

// NewCron wires the four jobs onto a cron runner. Each entry logs and
// swallows its own error.
func (j *Jobs) NewCron(ctx context.Context, s Schedule) (*cron.Cron, error) {
	c := cron.New()
	entries := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"heartbeat", s.Heartbeat, j.RunHeartbeat},
		{"low_stock", s.LowStock, j.RunLowStock},
		{"report", s.Report, j.RunReport},
		{"reminders", s.Reminders, j.RunReminders},
	}
	for _, e := range entries {
		e := e
		if _, err := c.AddFunc(e.spec, func() {
			if err := e.run(ctx); err != nil {
				log.Printf("job %s: %v", e.name, err)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
	}
	return c, nil
}

// formatCents renders integer cents as a decimal amount, e.g. 2550 ->
// "25.50".
func formatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
