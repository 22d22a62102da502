package journal

import (
	"errors"
	"net/http"
	"strconv"

	"emosante/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type JournalController struct {
	service JournalServiceInterface
}

func NewJournalController(service JournalServiceInterface) *JournalController {
	return &JournalController{
		service: service,
	}
}

// CreateEntry stores a new entry and starts its analysis
func (jc *JournalController) CreateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	entry, err := jc.service.CreateEntry(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetEntry returns one entry owned by the caller
func (jc *JournalController) GetEntry(c *gin.Context) {
	userID, entryID, ok := jc.identify(c)
	if !ok {
		return
	}

	entry, err := jc.service.GetEntry(c.Request.Context(), userID, entryID)
	if err != nil {
		respondError(c, err, "Failed to get entry")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ListEntries returns the caller's entries, newest first, optionally
// filtered by ?q=
func (jc *JournalController) ListEntries(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	entries, err := jc.service.ListEntries(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		respondError(c, err, "Failed to get entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (jc *JournalController) UpdateEntry(c *gin.Context) {
	userID, entryID, ok := jc.identify(c)
	if !ok {
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	entry, err := jc.service.UpdateEntry(c.Request.Context(), userID, entryID, req)
	if err != nil {
		respondError(c, err, "Failed to update entry")
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (jc *JournalController) DeleteEntry(c *gin.Context) {
	userID, entryID, ok := jc.identify(c)
	if !ok {
		return
	}

	if err := jc.service.DeleteEntry(c.Request.Context(), userID, entryID); err != nil {
		respondError(c, err, "Failed to delete entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

func (jc *JournalController) identify(c *gin.Context) (int, int, bool) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil || entryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return 0, 0, false
	}

	return userID, entryID, true
}

func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
	case errors.Is(err, ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	default:
		logrus.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
