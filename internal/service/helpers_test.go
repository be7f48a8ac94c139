package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"freightchat/internal/model"
	"freightchat/internal/notify"
	"freightchat/internal/repository"

	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func float64Ptr(v float64) *float64 {
	return &v
}

// fixtureLoads has three Swift loads so broker searches return a ranked list
func fixtureLoads() []model.Load {
	pickup := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	delivery := time.Date(2024, 3, 6, 17, 0, 0, 0, time.UTC)
	return []model.Load{
		{ID: 1234, BrokerName: "Swift Transportation", Status: "in_transit", OriginCity: "Dallas", OriginState: "TX", DestinationCity: "Atlanta", DestinationState: "GA", Rate: 2450, Miles: float64Ptr(780), PickupDate: &pickup, DeliveryDate: &delivery},
		{ID: 1235, BrokerName: "Swift Transportation", Status: "booked", OriginCity: "Houston", OriginState: "TX", DestinationCity: "Phoenix", DestinationState: "AZ", Rate: 3100},
		{ID: 2001, BrokerName: "CH Robinson", Status: "delivered", OriginCity: "Memphis", OriginState: "TN", DestinationCity: "Chicago", DestinationState: "IL", Rate: 1900},
		{ID: 2002, BrokerName: "Swift Transportation", Status: "delivered", OriginCity: "Denver", OriginState: "CO", DestinationCity: "Omaha", DestinationState: "NE", Rate: 1650},
	}
}

func newFixtureRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo, err := repository.NewMemoryRepositoryFromSeed(repository.SeedData{
		Loads: fixtureLoads(),
		Documents: []model.Document{
			{ID: 1, LoadID: 1234, Kind: "rate_confirmation", Name: "ratecon-1234.pdf", Status: "received", UploadedAt: time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)},
		},
		Communications: []model.Communication{
			{ID: 1, LoadID: 1234, Channel: "email", Counterparty: "Swift dispatch", Summary: "Driver checked in at pickup", OccurredAt: time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)},
		},
		Financials: []model.FinancialSummary{
			{LoadID: 1234, Revenue: 2450, FuelCost: 620, Tolls: 45, OtherExpenses: 0, NetProfit: 1785, InvoiceStatus: "pending"},
		},
	})
	require.NoError(t, err)
	return repo
}

// failingRepo returns errors from every call
type failingRepo struct{}

var errRepoDown = errors.New("repository unavailable")

func (failingRepo) FindByID(context.Context, int64) (*model.Load, error) { return nil, errRepoDown }
func (failingRepo) Search(context.Context, string) ([]model.Load, error) { return nil, errRepoDown }
func (failingRepo) GetRelated(context.Context, int64) (*model.Related, error) {
	return nil, errRepoDown
}

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeAI records calls and replies with a canned answer or error
type fakeAI struct {
	mu         sync.Mutex
	reply      string
	err        error
	calls      int
	transcript []model.ChatMessage
	system     string
}

func (f *fakeAI) Send(_ context.Context, transcript []model.ChatMessage, systemPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.transcript = append([]model.ChatMessage(nil), transcript...)
	f.system = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAI) IsEnabled() bool { return true }

func (f *fakeAI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// notification is one captured Notify call
type notification struct {
	title    string
	body     string
	severity string
}

// recordingNotifier captures notifications synchronously
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(title, body string, severity notify.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{title: title, body: body, severity: string(severity)})
}

func (n *recordingNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}
