package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/assistant"
	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/permissions"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
	"github.com/camden-git/eventmealsbackend/testutil"
)

var (
	testSecret = []byte("test-secret")
	friday     = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
)

type stubCompleter struct {
	mu    sync.Mutex
	calls int
}

func (c *stubCompleter) Complete(_ context.Context, _, _ string, _ []llm.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "Everyone has lunches left.", nil
}

func (c *stubCompleter) Title(_ context.Context, _ string) (string, error) {
	return "Lunch check", nil
}

type testServer struct {
	db      *gorm.DB
	handler http.Handler
}

func newTestServer(t *testing.T, withAssistant bool) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	now := func() time.Time { return friday }
	opts := []services.Option{services.WithClock(now)}
	approvals := services.NewApprovals(db, opts...)
	people := repository.NewPersonRepository(db)
	stats := database.NewStatsStore(sqlDB)
	lookup := assistant.NewLookup(people)

	cfg := RouterConfig{
		DB:          db,
		Admins:      repository.NewGormAdminRepository(db),
		People:      people,
		Consumption: repository.NewConsumptionRepository(db),
		Stats:       stats,
		Ledger:      services.NewLedger(db, approvals, opts...),
		Approvals:   approvals,
		Catalog:     services.NewCatalog(db, opts...),
		Lookups:     lookup,
		JWTSecret:   testSecret,
		JWTExpiry:   time.Hour,
		Now:         now,
	}
	if withAssistant {
		builder := assistant.NewContextBuilder(assistant.Sources{
			People:      people,
			Drinks:      repository.NewDrinkRepository(db),
			Orders:      repository.NewOrderRepository(db),
			Consumption: repository.NewConsumptionRepository(db),
			Stats:       stats,
		}, assistant.NewClassifier(lookup), now)
		cfg.Orchestrator = assistant.NewOrchestrator(repository.NewConversationRepository(db), builder, &stubCompleter{})
	}
	return &testServer{db: db, handler: NewRouter(cfg)}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) person(t *testing.T, first, last string, gender models.Gender) *models.Person {
	t.Helper()
	p := &models.Person{
		FirstName:        first,
		LastName:         last,
		Gender:           gender,
		LunchesRemaining: models.WeeklyLunches,
		DinnersRemaining: models.WeeklyDinners,
		DrinksRemaining:  models.WeeklyDrinks,
		WeekStart:        friday,
	}
	require.NoError(t, s.db.Create(p).Error)
	return p
}

func (s *testServer) admin(t *testing.T, username string, perms ...string) string {
	t.Helper()
	a := &models.Admin{Username: username, GlobalPermissions: perms}
	require.NoError(t, a.SetPassword("password123"))
	require.NoError(t, s.db.Create(a).Error)
	token, _, err := issueToken(a.ID, testSecret, time.Now(), time.Hour)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func firstError(t *testing.T, rec *httptest.ResponseRecorder) APIErrorDetail {
	t.Helper()
	resp := decode[APIErrorResponse](t, rec)
	require.NotEmpty(t, resp.Errors)
	return resp.Errors[0]
}

func TestConsumeLunch(t *testing.T) {
	s := newTestServer(t, false)
	s.person(t, "Jane", "Doe", models.GenderFemale)

	rec := s.do(t, http.MethodPost, "/api/lunch", map[string]string{"first_name": " jane ", "last_name": "DOE", "gender": "female"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	person := decode[models.Person](t, rec)
	assert.Equal(t, models.WeeklyLunches-1, person.LunchesRemaining)
	assert.Equal(t, models.WeeklyDinners, person.DinnersRemaining)

	var count int64
	require.NoError(t, s.db.Model(&models.ConsumptionRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConsumeLunch_Errors(t *testing.T) {
	s := newTestServer(t, false)
	s.person(t, "Jane", "Doe", models.GenderFemale)

	rec := s.do(t, http.MethodPost, "/api/lunch", map[string]string{"first_name": "John", "last_name": "Smith", "gender": "M"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", firstError(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/lunch", map[string]string{"first_name": "Jane", "last_name": "Doe"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := firstError(t, rec)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Equal(t, "400", detail.Status)
	assert.Equal(t, "first_name, last_name and gender are required", detail.Detail)

	req := httptest.NewRequest(http.MethodPost, "/api/dinner", bytes.NewBufferString("{not json"))
	bad := httptest.NewRecorder()
	s.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, firstError(t, bad).Detail, "Invalid request payload")
}

func TestConsumeDinner_Exhausted(t *testing.T) {
	s := newTestServer(t, false)
	p := s.person(t, "Jane", "Doe", models.GenderFemale)
	require.NoError(t, s.db.Model(p).Update("dinners_remaining", 0).Error)

	rec := s.do(t, http.MethodPost, "/api/dinner", map[string]string{"first_name": "Jane", "last_name": "Doe", "gender": "F"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no dinners remaining", firstError(t, rec).Detail)
}

func TestDrinkRequestAndApproval(t *testing.T) {
	s := newTestServer(t, false)
	p := s.person(t, "Jane", "Doe", models.GenderFemale)
	require.NoError(t, s.db.Create(&models.DrinkType{Name: "Cola", AvailableQuantity: 10}).Error)
	token := s.admin(t, "ops", permissions.OrderApprove, permissions.OrderList)

	rec := s.do(t, http.MethodPost, "/api/drink", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "gender": "F",
		"drink_name": "cola", "quantity": 2, "serving_point": "Bar 1",
	}, "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[DrinkRequestResponse](t, rec)
	assert.Equal(t, models.OrderPending, resp.Status)
	require.NotNil(t, resp.Order)

	// nothing is deducted while pending
	var fresh models.Person
	require.NoError(t, s.db.First(&fresh, p.ID).Error)
	assert.Equal(t, models.WeeklyDrinks, fresh.DrinksRemaining)

	rec = s.do(t, http.MethodGet, "/api/admin/orders/pending", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.DrinkOrder](t, rec), 1)

	path := "/api/admin/orders/" + jsonID(resp.Order.ID) + "/approve"
	rec = s.do(t, http.MethodPost, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.OrderApproved, decode[models.DrinkOrder](t, rec).Status)

	require.NoError(t, s.db.First(&fresh, p.ID).Error)
	assert.Equal(t, models.WeeklyDrinks-2, fresh.DrinksRemaining)
	var drink models.DrinkType
	require.NoError(t, s.db.Where("name = ?", "Cola").First(&drink).Error)
	assert.Equal(t, 8, drink.AvailableQuantity)

	rec = s.do(t, http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDrinkRequest_InsufficientStock(t *testing.T) {
	s := newTestServer(t, false)
	s.person(t, "Jane", "Doe", models.GenderFemale)
	require.NoError(t, s.db.Create(&models.DrinkType{Name: "Cola", AvailableQuantity: 1}).Error)

	rec := s.do(t, http.MethodPost, "/api/drink", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "gender": "F",
		"drink_name": "Cola", "quantity": 3, "serving_point": "Bar 1",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, firstError(t, rec).Detail, "insufficient stock")

	rec = s.do(t, http.MethodPost, "/api/drink", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "gender": "F", "drink_name": "Cola",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "serving_point is required", firstError(t, rec).Detail)
}

func TestSetDrinkStock(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/drinks/stock", map[string]any{"drink_name": "Cola", "quantity": 40}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Created Cola", decode[StockResponse](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/drinks/stock", map[string]any{"drink_name": "Cola", "quantity": 0}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[StockResponse](t, rec)
	assert.Equal(t, "Updated Cola", resp.Message)
	assert.Equal(t, 0, resp.Drink.AvailableQuantity)

	rec = s.do(t, http.MethodPost, "/api/drinks/stock", map[string]any{"drink_name": "Cola"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity is required", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodPost, "/api/drinks/stock", map[string]any{"drink_name": "Cola", "quantity": -1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity must be at least 0", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodGet, "/api/drinks/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.DrinkType](t, rec), 1)
}

func TestDrinkTransactions_RejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodGet, "/api/drinks/transactions?status=lost", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupAndLogin(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/setup/first-admin", map[string]string{"username": "root", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at least 8", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodPost, "/api/setup/first-admin", map[string]string{"username": "root", "password": "longenough"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/setup/first-admin", map[string]string{"username": "other", "password": "longenough"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "setup_completed", firstError(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "root", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "root", "password": "longenough"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[LoginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.ElementsMatch(t, permissions.GetAllPermissionKeys(), login.Admin.GlobalPermissions)

	rec = s.do(t, http.MethodGet, "/api/admin/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", decode[models.Admin](t, rec).Username)

	rec = s.do(t, http.MethodGet, "/api/admin/dashboard", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminRoutes_RequireAuthAndPermission(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.admin(t, "viewer", permissions.PersonList)

	rec := s.do(t, http.MethodGet, "/api/admin/people/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodGet, "/api/admin/people/", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, _, err := issueToken(1, []byte("other-secret"), time.Now(), time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/admin/people/", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token signature", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodGet, "/api/admin/people/", nil, viewer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/orders/1/approve", nil, viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/drinks/", map[string]any{"name": "Water", "quantity": 5}, viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminPeople_UpdateAndDelete(t *testing.T) {
	s := newTestServer(t, false)
	p := s.person(t, "Jane", "Doe", models.GenderFemale)
	token := s.admin(t, "editor", permissions.PersonList, permissions.PersonEdit, permissions.PersonDelete)
	path := "/api/admin/people/" + jsonID(p.ID)

	rec := s.do(t, http.MethodPut, path, map[string]any{"lunches": 1, "club": "  Rotary  "}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Person](t, rec)
	assert.Equal(t, 1, updated.LunchesRemaining)
	require.NotNil(t, updated.Club)
	assert.Equal(t, "Rotary", *updated.Club)

	rec = s.do(t, http.MethodPut, path, map[string]any{"drinks": -2}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_status"`)

	rec = s.do(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminPeople_UpdateRejectsDuplicateIdentity(t *testing.T) {
	s := newTestServer(t, false)
	s.person(t, "Jane", "Doe", models.GenderFemale)
	janet := s.person(t, "Janet", "Doe", models.GenderFemale)
	token := s.admin(t, "editor", permissions.PersonList, permissions.PersonEdit)
	path := "/api/admin/people/" + jsonID(janet.ID)

	rec := s.do(t, http.MethodPut, path, map[string]any{"first_name": "JANE"}, token)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "conflict", firstError(t, rec).Code)

	var names []string
	require.NoError(t, s.db.Model(&models.Person{}).Order("id").Pluck("first_name", &names).Error)
	assert.Equal(t, []string{"Jane", "Janet"}, names)

	rec = s.do(t, http.MethodPut, path, map[string]any{"first_name": "JANE", "gender": "male"}, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminDrinks(t *testing.T) {
	s := newTestServer(t, false)
	token := s.admin(t, "stock", permissions.InventoryEdit)

	rec := s.do(t, http.MethodPost, "/api/admin/drinks/", map[string]any{"name": "Water", "quantity": 5}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	drink := decode[models.DrinkType](t, rec)

	rec = s.do(t, http.MethodPut, "/api/admin/drinks/"+jsonID(drink.ID), map[string]any{"name": "Still Water"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Still Water", decode[models.DrinkType](t, rec).Name)

	rec = s.do(t, http.MethodDelete, "/api/admin/drinks/"+jsonID(drink.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/drinks/abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAccounts(t *testing.T) {
	s := newTestServer(t, false)
	manager := s.admin(t, "manager", permissions.AdminManage)

	rec := s.do(t, http.MethodPost, "/api/admin/admins/", map[string]any{
		"username": "bar", "password": "password123", "permissions": []string{permissions.OrderList, "orders.everything"},
	}, manager)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/admins/", map[string]any{
		"username": "bar", "password": "password123",
		"permissions": []string{permissions.OrderList, permissions.OrderApprove, permissions.OrderList},
	}, manager)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Admin](t, rec)
	assert.Equal(t, []string{permissions.OrderApprove, permissions.OrderList}, created.GlobalPermissions)

	rec = s.do(t, http.MethodPost, "/api/admin/admins/", map[string]any{"username": "bar", "password": "password123"}, manager)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/admins/"+jsonID(created.ID)+"/permissions",
		map[string]any{"permissions": []string{permissions.MealLogView}}, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{permissions.MealLogView}, decode[models.Admin](t, rec).GlobalPermissions)

	rec = s.do(t, http.MethodGet, "/api/admin/admins/", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Admin](t, rec), 2)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "bar", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[LoginResponse](t, rec).Token
	rec = s.do(t, http.MethodGet, "/api/admin/meal-logs", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/orders/pending", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicChatbot(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/chatbot/send", map[string]any{"message": "Who has lunches left?"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ChatResponse](t, rec)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Everyone has lunches left.", resp.Message)
	assert.Equal(t, "Lunch check", resp.Title)

	rec = s.do(t, http.MethodGet, "/api/chatbot/conversations", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "session_id query param is required", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodGet, "/api/chatbot/conversations?session_id="+resp.SessionID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ConversationsResponse](t, rec).Conversations, 1)

	historyPath := "/api/chatbot/conversations/" + jsonID(resp.ConversationID)
	rec = s.do(t, http.MethodGet, historyPath+"?session_id="+resp.SessionID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[HistoryResponse](t, rec)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, models.RoleUser, history.Messages[0].Role)

	rec = s.do(t, http.MethodGet, historyPath+"?session_id=someone-else", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/chatbot/send", map[string]any{"message": "   "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminChatbot(t *testing.T) {
	s := newTestServer(t, true)
	token := s.admin(t, "helper", permissions.AssistantUse)
	other := s.admin(t, "other", permissions.AssistantUse)

	rec := s.do(t, http.MethodPost, "/api/admin/chatbot/conversations", map[string]any{"message": ""}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message cannot be empty", firstError(t, rec).Detail)

	rec = s.do(t, http.MethodPost, "/api/admin/chatbot/conversations", map[string]any{"message": "How many drinks are pending?"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ChatResponse](t, rec)
	assert.Empty(t, resp.SessionID)

	path := "/api/admin/chatbot/conversations/" + jsonID(resp.ConversationID)
	rec = s.do(t, http.MethodPost, path, map[string]any{"message": "And approved?"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[HistoryResponse](t, rec).Messages, 4)

	rec = s.do(t, http.MethodGet, path, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/chatbot/conversations/"+jsonID(resp.ConversationID)+"?session_id=abc", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatbotDisabled(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodPost, "/api/chatbot/send", map[string]any{"message": "hello"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "assistant_disabled", firstError(t, rec).Code)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
