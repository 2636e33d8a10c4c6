package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/testutil"
)

var friday = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func bg() context.Context { return context.Background() }

type fixture struct {
	db            *gorm.DB
	people        *repository.PersonRepository
	drinks        *repository.DrinkRepository
	orders        *repository.OrderRepository
	consumption   *repository.ConsumptionRepository
	conversations *repository.ConversationRepository
	lookup        *Lookup
	classifier    *Classifier
	builder       *ContextBuilder
}

func newFixture(t *testing.T, opts ...LookupOption) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	f := &fixture{
		db:            db,
		people:        repository.NewPersonRepository(db),
		drinks:        repository.NewDrinkRepository(db),
		orders:        repository.NewOrderRepository(db),
		consumption:   repository.NewConsumptionRepository(db),
		conversations: repository.NewConversationRepository(db),
	}
	f.lookup = NewLookup(f.people, opts...)
	f.classifier = NewClassifier(f.lookup)
	f.builder = NewContextBuilder(Sources{
		People:      f.people,
		Drinks:      f.drinks,
		Orders:      f.orders,
		Consumption: f.consumption,
		Stats:       database.NewStatsStore(sqlDB),
	}, f.classifier, func() time.Time { return friday })
	return f
}

func (f *fixture) person(t *testing.T, first, last string, mutate ...func(*models.Person)) models.Person {
	t.Helper()
	p := models.Person{
		FirstName:        first,
		LastName:         last,
		Gender:           models.GenderUnknown,
		LunchesRemaining: models.WeeklyLunches,
		DinnersRemaining: models.WeeklyDinners,
		DrinksRemaining:  models.WeeklyDrinks,
		WeekStart:        friday,
	}
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, f.people.Create(bg(), &p))
	return p
}

func (f *fixture) drink(t *testing.T, name string, qty int) models.DrinkType {
	t.Helper()
	d, _, err := f.drinks.FirstOrCreate(bg(), name, qty)
	require.NoError(t, err)
	return *d
}

func ids(people []models.Person) []uint {
	out := make([]uint, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

// fakeCompleter records what the orchestrator sends to the model.
type fakeCompleter struct {
	mu          sync.Mutex
	reply       string
	err         error
	title       string
	titleErr    error
	titleCalls  int
	lastContext string
	lastHistory []llm.Message
}

func (c *fakeCompleter) Complete(_ context.Context, _ string, contextBlock string, history []llm.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastContext = contextBlock
	c.lastHistory = append([]llm.Message(nil), history...)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *fakeCompleter) Title(_ context.Context, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titleCalls++
	if c.titleErr != nil {
		return "", c.titleErr
	}
	return c.title, nil
}
