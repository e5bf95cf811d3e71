package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkwelllabs/mydiary/internal/auth"
	"github.com/inkwelllabs/mydiary/internal/entries"
	"github.com/inkwelllabs/mydiary/internal/users"
)

const (
	userContextKey      = "mydiary_user"
	requestIDContextKey = "mydiary_request_id"

	messageMissingToken  = "Authorization failed. Please provide a token"
	messageInvalidToken  = "Authorization failed. Your token is invalid or expired"
	messageInternalError = "Internal server error"
)

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingUserService  = errors.New("user service dependency required")
	errMissingEntryService = errors.New("entry service dependency required")
)

// TokenManager signs and verifies bearer tokens for the API.
type TokenManager interface {
	IssueToken(ctx context.Context, email string, createdOn int64) (string, int64, error)
	ValidateToken(token string) (auth.TokenClaims, error)
}

// Dependencies wires the services the HTTP layer needs.
type Dependencies struct {
	TokenManager TokenManager
	UserService  *users.Service
	EntryService *entries.Service
	Logger       *zap.Logger
}

// NewHTTPHandler builds the /api/v1 router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UserService == nil {
		return nil, errMissingUserService
	}
	if deps.EntryService == nil {
		return nil, errMissingEntryService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:  deps.TokenManager,
		users:   deps.UserService,
		entries: deps.EntryService,
		logger:  logger,
	}

	api := router.Group("/api/v1")
	api.GET("/", handler.handleRoot)
	api.POST("/auth/signup", handler.handleSignup)
	api.POST("/auth/login", handler.handleLogin)

	protected := api.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/entries", handler.handleListEntries)
	protected.POST("/entries", handler.handleCreateEntry)
	protected.GET("/entries/:id", handler.handleGetEntry)
	protected.PUT("/entries/:id", handler.handleModifyEntry)
	protected.DELETE("/entries/:id", handler.handleDeleteEntry)
	protected.GET("/profile", handler.handleGetProfile)
	protected.PUT("/profile", handler.handleUpdateProfile)

	return router, nil
}

type httpHandler struct {
	tokens  TokenManager
	users   *users.Service
	entries *entries.Service
	logger  *zap.Logger
}

func (h *httpHandler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "MyDiary API v1"})
}

// authorizeRequest validates the bearer token and resolves the owning account,
// so downstream handlers read the user once from the request context.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		abortError(c, http.StatusUnauthorized, messageInvalidToken)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			abortError(c, http.StatusUnauthorized, messageInvalidToken)
			return
		}
		h.logInternal(c, "authorize_user_lookup_failed", err)
		abortError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.Set(userContextKey, user)
	c.Next()
}

func currentUser(c *gin.Context) (users.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return users.User{}, false
	}
	user, ok := value.(users.User)
	return user, ok
}

func (h *httpHandler) logInternal(c *gin.Context, reason string, err error) {
	h.logger.Error("request failed",
		zap.String("reason", reason),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDContextKey)),
		zap.Error(err))
}
