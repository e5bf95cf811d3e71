package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkwelllabs/mydiary/internal/users"
)

const (
	messageUserExists       = "User already exists. Please login."
	messageWrongCredentials = "Email or Password is incorrect"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponsePayload struct {
	Token string `json:"token"`
}

func (h *httpHandler) handleSignup(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	body, ok := decodeBody(raw)
	if !ok {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	if failures := runRules(body, signupRules); len(failures) > 0 {
		respondFieldErrors(c, failures)
		return
	}

	var payload credentialsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}

	user, err := h.users.Register(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			respondError(c, http.StatusConflict, messageUserExists)
			return
		}
		h.logInternal(c, "signup_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	token, _, err := h.tokens.IssueToken(c.Request.Context(), user.Email, user.CreatedOn)
	if err != nil {
		h.logInternal(c, "token_issue_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.JSON(http.StatusCreated, tokenResponsePayload{Token: token})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	body, ok := decodeBody(raw)
	if !ok {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	if failures := runRules(body, loginRules); len(failures) > 0 {
		respondFieldErrors(c, failures)
		return
	}

	var payload credentialsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			respondError(c, http.StatusUnprocessableEntity, messageWrongCredentials)
			return
		}
		h.logInternal(c, "login_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	token, _, err := h.tokens.IssueToken(c.Request.Context(), user.Email, user.CreatedOn)
	if err != nil {
		h.logInternal(c, "token_issue_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{Token: token})
}

type profileResponsePayload struct {
	Email         string          `json:"email"`
	EntriesCount  int64           `json:"entries_count"`
	FavsCount     int64           `json:"favs_count"`
	CreatedOn     int64           `json:"created_on"`
	PushSub       json.RawMessage `json:"push_sub"`
	ReminderIsSet bool            `json:"reminder_is_set"`
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	counts, err := h.entries.CountsForUser(c.Request.Context(), user.ID)
	if err != nil {
		h.logInternal(c, "profile_counts_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	response := profileResponsePayload{
		Email:         user.Email,
		EntriesCount:  counts.Total,
		FavsCount:     counts.Favorites,
		CreatedOn:     user.CreatedOn,
		ReminderIsSet: user.ReminderIsSet,
	}
	if user.PushSub != "" && json.Valid([]byte(user.PushSub)) {
		response.PushSub = json.RawMessage(user.PushSub)
	}

	c.JSON(http.StatusOK, response)
}

type updateProfilePayload struct {
	PushSub       *json.RawMessage `json:"push_sub"`
	EmailReminder *bool            `json:"email_reminder"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	body, ok := decodeBody(raw)
	if !ok {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}
	if failures := runRules(body, updateProfileRules); len(failures) > 0 {
		respondFieldErrors(c, failures)
		return
	}

	var payload updateProfilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}

	var pushSub *string
	if payload.PushSub != nil {
		normalized, ok := subscriptionText(*payload.PushSub)
		if !ok {
			respondFieldErrors(c, []fieldError{{Param: "push_sub", Message: "Push Subscription should be JSON"}})
			return
		}
		pushSub = &normalized
	}

	if err := h.users.UpdateProfile(c.Request.Context(), user.ID, pushSub, payload.EmailReminder); err != nil {
		h.logInternal(c, "profile_update_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	h.logger.Debug("profile updated", zap.Int64("user_id", user.ID))
	c.Status(http.StatusNoContent)
}
