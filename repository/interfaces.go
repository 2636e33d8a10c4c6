package repository

import (
	"context"
	"time"

	"github.com/camden-git/eventmealsbackend/models"
)

// UpsertOutcome tags whether an upsert inserted a new row or touched an existing one.
type UpsertOutcome string

const (
	UpsertCreated  UpsertOutcome = "created"
	UpsertExisting UpsertOutcome = "existing"
)

// PersonRepositoryInterface defines the methods for registry data operations
type PersonRepositoryInterface interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error)
	List(ctx context.Context, limit int) ([]models.Person, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, person *models.Person) error
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)

	// name matching, all case-insensitive
	FindByName(ctx context.Context, firstName, lastName string) ([]models.Person, error)
	SearchFirstLast(ctx context.Context, firstPart, lastPart string, limit int) ([]models.Person, error)
	SearchAnyName(ctx context.Context, token string, limit int) ([]models.Person, error)

	// allowance counters
	SaveAllowance(ctx context.Context, person *models.Person) error
	DecrementAllowance(ctx context.Context, personID uint, kind models.MealKind, quantity int) (bool, error)

	Upsert(ctx context.Context, person *models.Person) (UpsertOutcome, error)
}

// DrinkRepositoryInterface defines the methods for drink catalog operations
type DrinkRepositoryInterface interface {
	GetByID(ctx context.Context, id uint) (*models.DrinkType, error)
	GetByName(ctx context.Context, name string) (*models.DrinkType, error)
	List(ctx context.Context) ([]models.DrinkType, error)
	FirstOrCreate(ctx context.Context, name string, quantity int) (*models.DrinkType, UpsertOutcome, error)
	Update(ctx context.Context, id uint, name *string, quantity *int) error
	Delete(ctx context.Context, id uint) error
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
}

// OrderFilter narrows an order listing. Empty fields match everything.
type OrderFilter struct {
	Status       models.OrderStatus
	ServingPoint string
	FirstName    string
	LastName     string
	Limit        int
}

// OrderRepositoryInterface defines the methods for drink order operations
type OrderRepositoryInterface interface {
	Create(ctx context.Context, order *models.DrinkOrder) error
	GetByID(ctx context.Context, id uint) (*models.DrinkOrder, error)
	ListPending(ctx context.Context, limit int) ([]models.DrinkOrder, error)
	ListRecent(ctx context.Context, limit int) ([]models.DrinkOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]models.DrinkOrder, error)
	CountPending(ctx context.Context) (int64, error)
	Transition(ctx context.Context, id uint, to models.OrderStatus, resolvedAt time.Time) (bool, error)
}

// ConsumptionRepositoryInterface defines the methods for the consumption log
type ConsumptionRepositoryInterface interface {
	Create(ctx context.Context, record *models.ConsumptionRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.ConsumptionRecord, error)
	ListForPerson(ctx context.Context, personID uint, limit int) ([]models.ConsumptionRecord, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// ConversationRepositoryInterface defines the methods for assistant conversations
type ConversationRepositoryInterface interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	ListForAdmin(ctx context.Context, adminID uint, limit int) ([]models.Conversation, error)
	ListForSession(ctx context.Context, sessionKey string, limit int) ([]models.Conversation, error)
	UpdateTitle(ctx context.Context, id uint, title string) error
	Touch(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error

	AddMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error)
	CountMessages(ctx context.Context, conversationID uint) (int64, error)
}

// AdminRepository defines the methods for admin account operations
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id uint) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]models.Admin, error)
	UpdatePermissions(ctx context.Context, id uint, keys []string) error
}
