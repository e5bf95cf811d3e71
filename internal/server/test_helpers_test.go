package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/inkwelllabs/mydiary/internal/auth"
	"github.com/inkwelllabs/mydiary/internal/entries"
	"github.com/inkwelllabs/mydiary/internal/users"
)

const testSigningSecret = "router-test-secret"

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:mydiary_server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&users.User{}, &entries.Entry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        "mydiary-auth",
		Audience:      "mydiary-api",
	})

	userService, err := users.NewService(users.ServiceConfig{
		Database: db,
		Hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
	})
	if err != nil {
		t.Fatalf("failed to construct user service: %v", err)
	}

	entryService, err := entries.NewService(entries.ServiceConfig{
		Database: db,
	})
	if err != nil {
		t.Fatalf("failed to construct entry service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: tokenManager,
		UserService:  userService,
		EntryService: entryService,
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}

	return handler, db
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, nil)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func newRecordedRequest(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func signupForToken(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	recorder := doRequest(t, handler, http.MethodPost, "/api/v1/auth/signup", "", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup failed with status %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Token string `json:"token"`
	}
	decodeJSON(t, recorder, &response)
	if response.Token == "" {
		t.Fatalf("signup returned no token")
	}
	return response.Token
}
