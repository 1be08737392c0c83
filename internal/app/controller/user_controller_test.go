package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/db"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testControllerSecret = "test-secret"

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func setupUserControllerTest(t *testing.T) (*gin.Engine, service.UserService) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	userService := service.NewUserService(userRepo, testControllerSecret, 15*time.Minute)

	ctrl := NewUserController(userService)
	authMiddleware := middleware.NewAuthMiddleware(testControllerSecret)

	router := gin.New()
	router.POST("/users/register", ctrl.Register)
	router.POST("/users/login", ctrl.Login)
	router.POST("/users/verify-token", authMiddleware.Authenticate(), ctrl.VerifyToken)
	router.GET("/users/:id", authMiddleware.Authenticate(), ctrl.GetUserByID)
	router.GET("/users", authMiddleware.RequireAdmin(), ctrl.GetAllUsers)
	router.GET("/users/get/count", authMiddleware.RequireAdmin(), ctrl.CountUsers)
	router.POST("/users", authMiddleware.RequireAdmin(), ctrl.CreateUser)
	router.DELETE("/users/:id", authMiddleware.RequireAdmin(), ctrl.DeleteUser)

	return router, userService
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func adminTokenFor(t *testing.T, userService service.UserService, email string) string {
	_, err := userService.CreateUser(service.UserInput{
		Name:     "Admin",
		Email:    email,
		Password: "supersecret",
		IsAdmin:  true,
	})
	require.NoError(t, err)

	_, token, err := userService.Login(email, "supersecret")
	require.NoError(t, err)
	return token
}

func TestUserController_Register(t *testing.T) {
	router, _ := setupUserControllerTest(t)

	w := postJSON(t, router, "/users/register", RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	user := response["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, false, user["is_admin"])
	// The password hash never leaves the server
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUserController_Register_DuplicateEmail(t *testing.T) {
	router, _ := setupUserControllerTest(t)

	payload := RegisterRequest{Name: "A", Email: "dup@example.com", Password: "password123"}
	w := postJSON(t, router, "/users/register", payload, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/users/register", payload, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_EMAIL_EXISTS")
}

func TestUserController_Register_ValidationFailure(t *testing.T) {
	router, _ := setupUserControllerTest(t)

	tests := []struct {
		name    string
		payload RegisterRequest
	}{
		{name: "Bad email", payload: RegisterRequest{Name: "A", Email: "not-an-email", Password: "password123"}},
		{name: "Short password", payload: RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}},
		{name: "Missing name", payload: RegisterRequest{Email: "a@example.com", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/users/register", tt.payload, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUserController_Login(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	_, err := userService.Register(service.UserInput{
		Name:     "Login User",
		Email:    "login@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	w := postJSON(t, router, "/users/login", LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "login@example.com", response["user"])
	assert.NotEmpty(t, response["token"])
}

func TestUserController_Login_WrongPassword(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	_, err := userService.Register(service.UserInput{
		Name:     "Login User",
		Email:    "login@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	w := postJSON(t, router, "/users/login", LoginRequest{
		Email:    "login@example.com",
		Password: "wrongpassword",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_INVALID_CREDENTIALS")
	assert.NotContains(t, w.Body.String(), "token")
}

func TestUserController_VerifyToken(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	token := adminTokenFor(t, userService, "admin@example.com")
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := postJSON(t, router, "/users/verify-token", VerifyTokenRequest{Token: token}, auth)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "admin@example.com", response["email"])
	assert.Equal(t, true, response["is_admin"])

	// A garbage token in the body is a 400
	w = postJSON(t, router, "/users/verify-token", VerifyTokenRequest{Token: "not-a-real-token"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")

	// So is a missing token field
	w = postJSON(t, router, "/users/verify-token", map[string]string{}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_REQUIRED")

	// The route itself sits behind authentication
	w = postJSON(t, router, "/users/verify-token", VerifyTokenRequest{Token: token}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserController_GetUserByID_AuthenticatedTier(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	user, err := userService.Register(service.UserInput{
		Name:     "Regular",
		Email:    "viewer@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	_, token, err := userService.Login("viewer@example.com", "password123")
	require.NoError(t, err)

	// Anonymous lookups are rejected
	req := httptest.NewRequest("GET", "/users/"+itoa(user.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token is enough, no admin flag needed
	req = httptest.NewRequest("GET", "/users/"+itoa(user.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	fetched := response["user"].(map[string]interface{})
	assert.Equal(t, "viewer@example.com", fetched["email"])
}

func TestUserController_AdminSurfaceIsGated(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	// Anonymous call is rejected
	req := httptest.NewRequest("GET", "/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A regular user is rejected
	_, err := userService.Register(service.UserInput{
		Name:     "Regular",
		Email:    "regular@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	_, userToken, err := userService.Login("regular@example.com", "password123")
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin gets through
	adminToken := adminTokenFor(t, userService, "gate-admin@example.com")
	req = httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserController_CreateUser_CanGrantAdmin(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	adminToken := adminTokenFor(t, userService, "root@example.com")

	w := postJSON(t, router, "/users", UserRequest{
		Name:     "New Admin",
		Email:    "second-admin@example.com",
		Password: "password123",
		IsAdmin:  true,
	}, map[string]string{"Authorization": "Bearer " + adminToken})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	user := response["user"].(map[string]interface{})
	assert.Equal(t, true, user["is_admin"])
}

func TestUserController_CountUsers(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	adminToken := adminTokenFor(t, userService, "counter@example.com")

	req := httptest.NewRequest("GET", "/users/get/count", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])
}

func TestUserController_DeleteUser(t *testing.T) {
	router, userService := setupUserControllerTest(t)

	adminToken := adminTokenFor(t, userService, "deleter@example.com")

	victim, err := userService.Register(service.UserInput{
		Name:     "Victim",
		Email:    "victim@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/users/"+itoa(victim.ID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting again reports not found
	req = httptest.NewRequest("DELETE", "/users/"+itoa(victim.ID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed ID
	req = httptest.NewRequest("DELETE", "/users/abc", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_ID")
}
