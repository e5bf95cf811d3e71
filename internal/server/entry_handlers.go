package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwelllabs/mydiary/internal/entries"
)

const (
	messageEntryNotFound     = "Entry not found"
	messageEditWindowExpired = "Cannot update entry after 24 hours"
)

func (h *httpHandler) handleListEntries(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	query, ok := validateListQuery(c)
	if !ok {
		return
	}

	page, err := h.entries.List(c.Request.Context(), user.ID, query.limit, query.page, query.favoritesOnly)
	if err != nil {
		h.logInternal(c, "entries_list_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	response := listResponsePayload{
		Entries: make([]entryPayload, 0, len(page.Entries)),
		Meta: listMetaPayload{
			Limit: page.Limit,
			Page:  page.Page,
			Count: page.Count,
		},
	}
	for _, entry := range page.Entries {
		response.Entries = append(response.Entries, toEntryPayload(entry))
	}

	c.JSON(http.StatusOK, response)
}

type newEntryPayload struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	IsFavorite bool   `json:"is_favorite"`
}

func (h *httpHandler) handleCreateEntry(c *gin.Context) {
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
	if failures := runRules(body, newEntryRules); len(failures) > 0 {
		respondFieldErrors(c, failures)
		return
	}

	var payload newEntryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), user.ID, payload.Title, payload.Content, payload.IsFavorite)
	if err != nil {
		h.logInternal(c, "entry_create_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.JSON(http.StatusCreated, toEntryPayload(entry))
}

func (h *httpHandler) handleGetEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	entryID, ok := validateEntryID(c)
	if !ok {
		return
	}

	entry, err := h.entries.Get(c.Request.Context(), user.ID, entryID)
	if err != nil {
		if errors.Is(err, entries.ErrNotFound) {
			respondError(c, http.StatusNotFound, messageEntryNotFound)
			return
		}
		h.logInternal(c, "entry_get_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.JSON(http.StatusOK, toEntryPayload(entry))
}

type modifyEntryPayload struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	IsFavorite *bool   `json:"is_favorite"`
}

func (h *httpHandler) handleModifyEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	entryID, ok := validateEntryID(c)
	if !ok {
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
	if failures := runRules(body, modifyEntryRules); len(failures) > 0 {
		respondFieldErrors(c, failures)
		return
	}

	var payload modifyEntryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondError(c, http.StatusBadRequest, messageMalformedBody)
		return
	}

	entry, err := h.entries.Update(c.Request.Context(), user.ID, entryID, entries.Partial{
		Title:      payload.Title,
		Content:    payload.Content,
		IsFavorite: payload.IsFavorite,
	})
	if err != nil {
		switch {
		case errors.Is(err, entries.ErrNotFound):
			respondError(c, http.StatusNotFound, messageEntryNotFound)
		case errors.Is(err, entries.ErrEditWindowExpired):
			respondError(c, http.StatusForbidden, messageEditWindowExpired)
		default:
			h.logInternal(c, "entry_update_failed", err)
			respondError(c, http.StatusInternalServerError, messageInternalError)
		}
		return
	}

	c.JSON(http.StatusOK, toEntryPayload(entry))
}

func (h *httpHandler) handleDeleteEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, messageMissingToken)
		return
	}

	entryID, ok := validateEntryID(c)
	if !ok {
		return
	}

	if err := h.entries.Delete(c.Request.Context(), user.ID, entryID); err != nil {
		if errors.Is(err, entries.ErrNotFound) {
			respondError(c, http.StatusNotFound, messageEntryNotFound)
			return
		}
		h.logInternal(c, "entry_delete_failed", err)
		respondError(c, http.StatusInternalServerError, messageInternalError)
		return
	}

	c.Status(http.StatusNoContent)
}
