package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendlens/internal/models"
	"spendlens/internal/services"
)

// NoteHandler handles transaction notes and tags.
type NoteHandler struct {
	noteService services.NoteServicer
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteService services.NoteServicer) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// UpsertNoteRequest represents the request payload for saving a note.
type UpsertNoteRequest struct {
	Note string   `json:"note" binding:"max=2000"`
	Tags []string `json:"tags" binding:"max=20,dive,max=50"`
}

// NoteResponse represents a note in the response.
type NoteResponse struct {
	Signature string    `json:"signature"`
	Note      string    `json:"note"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoteResponse(n *models.TransactionNote) NoteResponse {
	return NoteResponse{Signature: n.Signature, Note: n.Note, Tags: n.TagList(), UpdatedAt: n.UpdatedAt}
}

// GetNotes handles listing the user's notes.
// @Summary     Get notes
// @Tags        notes
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]NoteResponse "Notes"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notes [get]
func (h *NoteHandler) GetNotes(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notes, err := h.noteService.ListNotes(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := make([]NoteResponse, len(notes))
	for i := range notes {
		resp[i] = toNoteResponse(&notes[i])
	}
	c.JSON(http.StatusOK, gin.H{"notes": resp})
}

// UpsertNote handles attaching a note and tags to a transaction signature.
// @Summary     Save a note
// @Description Attach a note and tags to a transaction by its signature, so they survive re-imports
// @Tags        notes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       signature path string            true "Transaction signature"
// @Param       request   body UpsertNoteRequest true "Note and tags"
// @Success     200 {object} NoteResponse "Saved note"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notes/{signature} [put]
func (h *NoteHandler) UpsertNote(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	note, err := h.noteService.UpsertNote(scope, services.NoteInput{
		Signature: c.Param("signature"),
		Note:      req.Note,
		Tags:      req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

// DeleteNote handles removing a note.
// @Summary     Delete a note
// @Tags        notes
// @Produce     json
// @Security    BearerAuth
// @Param       signature path string true "Transaction signature"
// @Success     200 {object} map[string]string "Note deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Note not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notes/{signature} [delete]
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.noteService.DeleteNote(scope, c.Param("signature")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// ReconcileLegacy handles the one-time move of client-local data.
// @Summary     Reconcile legacy local data
// @Description Import notes and budgets a client kept locally. Values already in the shared store win.
// @Tags        notes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.LegacyData true "Local notes and budgets"
// @Success     200 {object} services.ReconcileResult "What was imported and kept"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notes/reconcile [post]
func (h *NoteHandler) ReconcileLegacy(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.LegacyData
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.noteService.ReconcileLegacy(scope, req, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
