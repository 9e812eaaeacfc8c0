package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/pageza/homefoods/backend/internal/middleware"
	"github.com/pageza/homefoods/backend/internal/service"
	"github.com/pageza/homefoods/backend/internal/store/sqlstore"
	"github.com/pageza/homefoods/backend/internal/types"
)

type testServer struct {
	router *gin.Engine
	store  *sqlstore.Store
	token  string
}

func setupTestRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlstore.OpenSQLite(":memory:", sqlstore.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close(context.Background()) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := service.NewAuthService("test-secret", 0)
	token, err := auth.GenerateToken("ops@homefoods", types.RoleAdmin)
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.ErrorHandler(log))
	RegisterRoutes(router, service.NewFoodService(st, nil, log), Options{Auth: auth}, log)
	return &testServer{router: router, store: st, token: token}
}

func (s *testServer) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var response map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func fishFry() map[string]any {
	return map[string]any{
		"name":         "Fish Fry",
		"description":  "Delicious Food",
		"category":     "Non Veg",
		"price":        200,
		"is_available": true,
		"rating":       4.5,
		"ingredients":  []string{"mutton", "basmathi rice", "spices"},
	}
}

func (s *testServer) create(t *testing.T, body map[string]any) string {
	t.Helper()
	w, response := s.do(t, http.MethodPost, "/api/v1/foods", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return response["food"].(map[string]any)["id"].(string)
}

func TestCreateFood(t *testing.T) {
	s := setupTestRouter(t)

	w, response := s.do(t, http.MethodPost, "/api/v1/foods", fishFry())
	assert.Equal(t, http.StatusCreated, w.Code)
	food := response["food"].(map[string]any)
	assert.NotEmpty(t, food["id"])
	assert.Equal(t, "Fish Fry", food["name"])
	assert.Equal(t, 200.0, food["price"])
	assert.Equal(t, []any{"mutton", "basmathi rice", "spices"}, food["ingredients"])
}

func TestCreateFoodValidation(t *testing.T) {
	s := setupTestRouter(t)

	body := fishFry()
	body["category"] = "Spicy"
	body["price"] = 5
	delete(body, "rating")

	w, response := s.do(t, http.MethodPost, "/api/v1/foods", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{
		"category": "Spicy is not supported",
		"price":    "Why any item less than 10?",
		"rating":   "Please send rating",
	}, response["errors"])

	w, response = s.do(t, http.MethodGet, "/api/v1/foods/count", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, response["count"])
}

func TestWriteRoutesRequireAdmin(t *testing.T) {
	s := setupTestRouter(t)
	id := s.create(t, fishFry())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/foods/"+id, nil)
	w, _ := s.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer, err := service.NewAuthService("test-secret", 0).GenerateToken("guest", "viewer")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/foods/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	w, _ = s.serve(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/foods/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads stay public")
}

func TestGetFood(t *testing.T) {
	s := setupTestRouter(t)
	id := s.create(t, fishFry())

	w, response := s.do(t, http.MethodGet, "/api/v1/foods/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, response["food"].(map[string]any)["id"])

	w, response = s.do(t, http.MethodGet, "/api/v1/foods/61b71dfc99b7b46d32cfe5cb", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "food item not found", response["error"])
}

func TestListFoods(t *testing.T) {
	s := setupTestRouter(t)
	s.create(t, fishFry())
	s.create(t, map[string]any{"name": "Mango Pappu", "description": "Dal", "category": "Veg", "price": 120, "is_available": true, "rating": 4, "ingredients": []string{"mango"}})
	s.create(t, map[string]any{"name": "Tomato Pappu", "description": "Seasonal", "category": "Veg", "is_available": false, "rating": 4.8})

	params := url.Values{}
	params.Set("filter", `{"price": {"$gt": 100}}`)
	params.Set("sort", "-price")
	params.Set("select", "name price")
	w, response := s.do(t, http.MethodGet, "/api/v1/foods?"+params.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	foods := response["foods"].([]any)
	require.Len(t, foods, 2)
	assert.Equal(t, "Fish Fry", foods[0].(map[string]any)["name"])
	assert.Equal(t, "Mango Pappu", foods[1].(map[string]any)["name"])
	assert.Nil(t, foods[0].(map[string]any)["rating"], "rating is not selected")

	params = url.Values{}
	params.Set("filter", `{"name": {"$regex": "pappu$", "$options": "i"}}`)
	params.Set("sort", "name")
	params.Set("skip", "1")
	params.Set("limit", "1")
	w, response = s.do(t, http.MethodGet, "/api/v1/foods?"+params.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	foods = response["foods"].([]any)
	require.Len(t, foods, 1)
	assert.Equal(t, "Tomato Pappu", foods[0].(map[string]any)["name"])

	for _, target := range []string{
		"/api/v1/foods?filter=" + url.QueryEscape(`{"price":`),
		"/api/v1/foods?filter=" + url.QueryEscape(`{"colour": "red"}`),
		"/api/v1/foods?sort=colour",
		"/api/v1/foods?limit=ten",
	} {
		w, _ = s.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestCountFoods(t *testing.T) {
	s := setupTestRouter(t)
	s.create(t, fishFry())

	w, response := s.do(t, http.MethodGet, "/api/v1/foods/count?filter="+url.QueryEscape(`{"category": "Non Veg"}`), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, response["count"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/foods/count?filter="+url.QueryEscape(`{"colour": "red"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateFood(t *testing.T) {
	s := setupTestRouter(t)
	id := s.create(t, fishFry())

	w, response := s.do(t, http.MethodPut, "/api/v1/foods/"+id, map[string]any{"name": "Mudha Pappu", "price": 70})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	food := response["food"].(map[string]any)
	assert.Equal(t, "Mudha Pappu", food["name"])
	assert.Equal(t, 70.0, food["price"])
	assert.Equal(t, "Delicious Food", food["description"])

	w, response = s.do(t, http.MethodPut, "/api/v1/foods/"+id, map[string]any{"price": 1001})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"price": "more than 1000, any item should not sell"}, response["errors"])

	w, _ = s.do(t, http.MethodPut, "/api/v1/foods/61b71dfc99b7b46d32cfe5cb", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetFood(t *testing.T) {
	s := setupTestRouter(t)
	id := s.create(t, fishFry())

	w, response := s.do(t, http.MethodPatch, "/api/v1/foods/"+id+"?new=true", map[string]any{"name": "Pappu Curry", "price": 60})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Pappu Curry", response["food"].(map[string]any)["name"])

	w, response = s.do(t, http.MethodPatch, "/api/v1/foods/"+id, map[string]any{"rating": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.5, response["food"].(map[string]any)["rating"], "the record before the change is returned")

	w, response = s.do(t, http.MethodPatch, "/api/v1/foods/"+id, map[string]any{"rating": 5.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"rating": "please send rating between 0 and 5"}, response["errors"])

	w, _ = s.do(t, http.MethodPatch, "/api/v1/foods/"+id+"?new=maybe", map[string]any{"rating": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/foods/61b71dfc99b7b46d32cfe5cb", map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFood(t *testing.T) {
	s := setupTestRouter(t)
	id := s.create(t, fishFry())

	w, response := s.do(t, http.MethodDelete, "/api/v1/foods/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fish Fry", response["food"].(map[string]any)["name"])

	w, response = s.do(t, http.MethodDelete, "/api/v1/foods/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response, "food")
	assert.Nil(t, response["food"])
}

func upload(t *testing.T, s *testServer, name string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/foods/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.serve(t, req)
}

func TestImportFoods(t *testing.T) {
	s := setupTestRouter(t)

	doc := []byte(`
- name: Fish Fry
  description: Delicious Food
  category: Non Veg
  price: 200
  is_available: true
  rating: 4.5
- name: Chicken Biryani
  description: Spicy
  category: Non Veg
  is_available: true
  rating: 4.7
`)
	w, response := upload(t, s, "menu.yaml", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, response["inserted"], 1)
	failures := response["failures"].([]any)
	require.Len(t, failures, 1)
	failure := failures[0].(map[string]any)
	assert.Equal(t, 2.0, failure["row"])
	assert.Equal(t, map[string]any{"price": "Path `price` is required."}, failure["errors"])

	w, _ = upload(t, s, "menu.csv", []byte("name\nFish Fry\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = upload(t, s, "menu.json", []byte(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	s := setupTestRouter(t)

	w, response := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", response["status"])

	require.NoError(t, s.store.Close(context.Background()))
	w, response = s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", response["status"])
}

func TestFailHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFoodHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.fail(c, "failed to fetch food items", errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to fetch food items"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}
