package services

import (
	"encoding/hex"
	"maps"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
)

// noteService handles transaction notes and tags.
type noteService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewNoteService creates a new NoteServicer.
func NewNoteService(db *gorm.DB, audit AuditServicer) NoteServicer {
	return &noteService{db: db, audit: audit}
}

// ListNotes returns the user's notes.
func (s *noteService) ListNotes(userScope string) ([]models.TransactionNote, error) {
	var notes []models.TransactionNote
	if err := s.db.Where("user_scope = ?", userScope).Order("created_at").Find(&notes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if notes == nil {
		notes = []models.TransactionNote{}
	}
	return notes, nil
}

// UpsertNote sets the note and tags attached to a transaction signature.
func (s *noteService) UpsertNote(userScope string, input NoteInput) (*models.TransactionNote, error) {
	note, err := noteFromInput(userScope, input)
	if err != nil {
		return nil, err
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_scope"}, {Name: "signature"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "tags", "updated_at"}),
	}).Create(note).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.TransactionNote
	if err := s.db.Where("user_scope = ? AND signature = ?", userScope, note.Signature).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// DeleteNote removes the note attached to signature.
func (s *noteService) DeleteNote(userScope, signature string) error {
	result := s.db.Where("user_scope = ? AND signature = ?", userScope, strings.ToLower(signature)).Delete(&models.TransactionNote{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNoteNotFound
	}
	return nil
}

// ReconcileLegacy moves client-local notes and budgets into the shared store
// in one database transaction. Where the store already has a note for a
// signature or a budget for a category, the stored value is kept.
func (s *noteService) ReconcileLegacy(userScope string, data LegacyData, ipAddress string) (*ReconcileResult, error) {
	notes := make([]*models.TransactionNote, 0, len(data.Notes))
	for _, input := range data.Notes {
		note, err := noteFromInput(userScope, input)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	for category, amount := range data.Budgets {
		if strings.TrimSpace(category) == "" || amount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "legacy budgets need a category and a non-negative amount")
		}
	}

	result := &ReconcileResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, note := range notes {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_scope"}, {Name: "signature"}},
				DoNothing: true,
			}).Create(note)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.NotesImported++
			} else {
				result.NotesKept++
			}
		}

		for _, category := range slices.Sorted(maps.Keys(data.Budgets)) {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_scope"}, {Name: "category"}},
				DoNothing: true,
			}).Create(&models.Budget{
				UserScope: userScope,
				Category:  strings.TrimSpace(category),
				Amount:    data.Budgets[category].Round(2),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.BudgetsImported++
			} else {
				result.BudgetsKept++
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(userScope, AuditActionLegacyReconcile, AuditResourceLegacyUserData, "", ipAddress, map[string]any{
		"notes_imported":   result.NotesImported,
		"notes_kept":       result.NotesKept,
		"budgets_imported": result.BudgetsImported,
		"budgets_kept":     result.BudgetsKept,
	})
	return result, nil
}

// noteFromInput validates input and converts it to a model.
func noteFromInput(userScope string, input NoteInput) (*models.TransactionNote, error) {
	signature := strings.ToLower(strings.TrimSpace(input.Signature))
	if !validSignature(signature) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "signature must be a 64 character hex string")
	}
	note := &models.TransactionNote{
		UserScope: userScope,
		Signature: signature,
		Note:      strings.TrimSpace(input.Note),
	}
	note.SetTags(input.Tags)
	return note, nil
}

func validSignature(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
