package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwelllabs/mydiary/internal/entries"
)

const messageMalformedBody = "Request body should be valid JSON"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": gin.H{"message": message}})
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message}})
}

func respondFieldErrors(c *gin.Context, failures []fieldError) {
	c.JSON(http.StatusBadRequest, gin.H{"error": failures})
}

type entryPayload struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	IsFavorite bool   `json:"is_favorite"`
	CreatedOn  int64  `json:"created_on"`
	UpdatedOn  int64  `json:"updated_on"`
}

func toEntryPayload(entry entries.Entry) entryPayload {
	return entryPayload{
		ID:         entry.ID,
		Title:      entry.Title,
		Content:    entry.Content,
		IsFavorite: entry.IsFavorite,
		CreatedOn:  entry.CreatedOn,
		UpdatedOn:  entry.UpdatedOn,
	}
}

type listMetaPayload struct {
	Limit int   `json:"limit"`
	Page  int   `json:"page"`
	Count int64 `json:"count"`
}

type listResponsePayload struct {
	Entries []entryPayload  `json:"entries"`
	Meta    listMetaPayload `json:"meta"`
}
