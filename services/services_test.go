package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/realtime"
	"github.com/camden-git/eventmealsbackend/testutil"
)

var (
	friday   = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	saturday = friday.AddDate(0, 0, 1)
	sunday   = friday.AddDate(0, 0, 2)
	monday   = friday.AddDate(0, 0, 3)
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Broadcast(event realtime.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type fixture struct {
	db        *gorm.DB
	clock     *clock
	publisher *recordingPublisher
	approvals *Approvals
	ledger    *Ledger
	catalog   *Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	c := &clock{now: friday}
	pub := &recordingPublisher{}
	opts := []Option{WithClock(c.Now), WithPublisher(pub)}
	approvals := NewApprovals(db, opts...)
	return &fixture{
		db:        db,
		clock:     c,
		publisher: pub,
		approvals: approvals,
		ledger:    NewLedger(db, approvals, opts...),
		catalog:   NewCatalog(db, opts...),
	}
}

func (f *fixture) person(t *testing.T, first, last string, gender models.Gender, mutate ...func(*models.Person)) *models.Person {
	t.Helper()
	p := &models.Person{
		FirstName:        first,
		LastName:         last,
		Gender:           gender,
		LunchesRemaining: models.WeeklyLunches,
		DinnersRemaining: models.WeeklyDinners,
		DrinksRemaining:  models.WeeklyDrinks,
		WeekStart:        f.clock.Now(),
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) drink(t *testing.T, name string, quantity int) *models.DrinkType {
	t.Helper()
	d := &models.DrinkType{Name: name, AvailableQuantity: quantity}
	require.NoError(t, f.db.Create(d).Error)
	return d
}

func (f *fixture) reload(t *testing.T, p *models.Person) *models.Person {
	t.Helper()
	var fresh models.Person
	require.NoError(t, f.db.First(&fresh, p.ID).Error)
	return &fresh
}

func (f *fixture) stock(t *testing.T, d *models.DrinkType) int {
	t.Helper()
	var fresh models.DrinkType
	require.NoError(t, f.db.First(&fresh, d.ID).Error)
	return fresh.AvailableQuantity
}

func bg() context.Context { return context.Background() }
