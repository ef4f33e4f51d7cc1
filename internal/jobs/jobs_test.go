package jobs

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osagie/go-crm-backend.git/internal/apiclient"
	"github.com/osagie/go-crm-backend.git/internal/crm"
	"github.com/osagie/go-crm-backend.git/internal/httpx"
	kafkax "github.com/osagie/go-crm-backend.git/internal/kafka"
)

func newAPIFixture(t *testing.T) (*apiclient.Client, *crm.Service) {
	t.Helper()
	svc := &crm.Service{Store: crm.NewMemStore(), Name: "crm-test"}
	router := httpx.NewRouter()
	h := &httpx.CRMHandler{Service: svc}
	h.Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL), svc
}

func newJobs(t *testing.T, api *apiclient.Client) (*Jobs, string) {
	t.Helper()
	dir := t.TempDir()
	return &Jobs{
		API:       api,
		Heartbeat: NewLogbook(filepath.Join(dir, "heartbeat.txt")),
		LowStock:  NewLogbook(filepath.Join(dir, "low_stock.txt")),
		Report:    NewLogbook(filepath.Join(dir, "report.txt")),
		Reminders: NewLogbook(filepath.Join(dir, "reminders.txt")),
	}, dir
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestRunHeartbeat(t *testing.T) {
	api, _ := newAPIFixture(t)
	j, dir := newJobs(t, api)

	require.NoError(t, j.RunHeartbeat(context.Background()))
	line := readLog(t, dir, "heartbeat.txt")
	assert.Contains(t, line, "CRM is alive - API says: ok")
}

func TestRunHeartbeat_APIDown(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	j, dir := newJobs(t, apiclient.New(url))
	require.NoError(t, j.RunHeartbeat(context.Background()), "job must degrade, not fail")
	line := readLog(t, dir, "heartbeat.txt")
	assert.Contains(t, line, "CRM is alive - API check failed:")
}

func TestRunLowStock(t *testing.T) {
	api, svc := newAPIFixture(t)
	j, dir := newJobs(t, api)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, crm.ProductInput{Name: "Widget", PriceCents: 100, Stock: 3})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, crm.ProductInput{Name: "Gadget", PriceCents: 100, Stock: 12})
	require.NoError(t, err)

	require.NoError(t, j.RunLowStock(ctx))
	out := readLog(t, dir, "low_stock.txt")
	assert.Contains(t, out, "Updated 1 low-stock products (+10 each).")
	assert.Contains(t, out, "    Widget -> Stock: 13")
	assert.NotContains(t, out, "Gadget")
}

func TestRunLowStock_APIDown(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	j, dir := newJobs(t, apiclient.New(url))
	require.NoError(t, j.RunLowStock(context.Background()))
	assert.Contains(t, readLog(t, dir, "low_stock.txt"), "- ERROR:")
}

func TestRunReport(t *testing.T) {
	api, svc := newAPIFixture(t)
	j, dir := newJobs(t, api)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, crm.CustomerInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	p, err := svc.CreateProduct(ctx, crm.ProductInput{Name: "Widget", PriceCents: 2500, Stock: 5})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, crm.OrderInput{CustomerID: c.ID, ProductIDs: []string{p.ID}})
	require.NoError(t, err)

	require.NoError(t, j.RunReport(ctx))
	out := readLog(t, dir, "report.txt")
	assert.Contains(t, out, "Report: 1 customers, 1 orders, 25.00 revenue")
}

func TestRunReminders(t *testing.T) {
	api, svc := newAPIFixture(t)
	j, dir := newJobs(t, api)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, crm.CustomerInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	p, err := svc.CreateProduct(ctx, crm.ProductInput{Name: "Widget", PriceCents: 100, Stock: 5})
	require.NoError(t, err)
	o, err := svc.CreateOrder(ctx, crm.OrderInput{CustomerID: c.ID, ProductIDs: []string{p.ID}})
	require.NoError(t, err)

	require.NoError(t, j.RunReminders(ctx))
	out := readLog(t, dir, "reminders.txt")
	assert.Contains(t, out, "Order ID: "+o.ID)
	assert.Contains(t, out, "Customer Email: ada@example.com")
}

type denyLocker struct{}

func (denyLocker) Acquire(context.Context, string) (bool, error) { return false, nil }
func (denyLocker) Release(context.Context, string) error         { return nil }

func TestJobLockHeldElsewhere(t *testing.T) {
	api, _ := newAPIFixture(t)
	j, dir := newJobs(t, api)
	j.Locker = denyLocker{}

	require.NoError(t, j.RunHeartbeat(context.Background()))
	_, err := os.Stat(filepath.Join(dir, "heartbeat.txt"))
	assert.True(t, os.IsNotExist(err), "skipped run must not write")
}

func TestConfirmer(t *testing.T) {
	dir := t.TempDir()
	c := &Confirmer{Log: NewLogbook(filepath.Join(dir, "confirm.txt"))}

	env := crm.Envelope{
		EventType:    crm.EventOrderCreated,
		EventVersion: 1,
		Payload: kafkax.MustMarshal(crm.OrderCreatedPayload{
			OrderID:       "ord-1",
			CustomerEmail: "ada@example.com",
			TotalCents:    2500,
		}),
	}
	msg := kafkago.Message{Value: kafkax.MustMarshal(env)}
	require.NoError(t, c.HandleOrderCreated(context.Background(), msg))

	out := readLog(t, dir, "confirm.txt")
	assert.Contains(t, out, "Order ID: ord-1")
	assert.Contains(t, out, "Total: 25.00")

	// other event types are ignored, nothing appended
	other := crm.Envelope{EventType: crm.EventProductsRestocked, Payload: kafkax.MustMarshal(struct{}{})}
	require.NoError(t, c.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(other)}))
	assert.Equal(t, 1, strings.Count(readLog(t, dir, "confirm.txt"), "\n"))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "25.50", formatCents(2550))
	assert.Equal(t, "-1.25", formatCents(-125))
}
