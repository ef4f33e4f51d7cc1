package jobs

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/osagie/go-crm-backend.git/internal/crm"
	kafkax "github.com/osagie/go-crm-backend.git/internal/kafka"
)

// Confirmer consumes crm.order.created and records a confirmation line
// per order, the stub for the outbound confirmation email.
type Confirmer struct {
	Log *Logbook
}

func (c *Confirmer) HandleOrderCreated(_ context.Context, m kafkago.Message) error {
	var env crm.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != crm.EventOrderCreated {
		return nil // ignore
	}
	p, err := kafkax.UnwrapPayload[crm.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	ts := time.Now().Format(plainStamp)
	return c.Log.Appendf("%s - Confirmation queued: Order ID: %s, Customer Email: %s, Total: %s",
		ts, p.OrderID, p.CustomerEmail, formatCents(p.TotalCents))
}
