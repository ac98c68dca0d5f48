package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"

	"spendlens/internal/merchant"
	"spendlens/internal/models"
)

// merchantNameTokens is how many significant description tokens make up a
// display name.
const merchantNameTokens = 2

// Batch is one statement import: rows in file order plus the bank they came from.
type Batch struct {
	UserScope string
	BankName  string
	Rows      []RawRow
}

// BuildResult holds the canonical transactions of a batch. Skipped lists the
// positions of rows that had neither a date nor an amount.
type BuildResult struct {
	Fields       FieldMap
	Transactions []models.Transaction
	Skipped      []int
}

// Builder converts raw batches into canonical transactions. The zero value is
// ready to use.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build resolves the batch's fields once and emits one transaction per
// usable row. Transactions keep the batch's bank and scope and the row's
// original position. IDs are left empty for persistence to assign.
func (b *Builder) Build(batch Batch) BuildResult {
	fields := ResolveBatch(batch.Rows)
	result := BuildResult{
		Fields:       fields,
		Transactions: make([]models.Transaction, 0, len(batch.Rows)),
	}

	for pos, row := range batch.Rows {
		tx, ok := buildRow(row, fields)
		if !ok {
			result.Skipped = append(result.Skipped, pos)
			continue
		}
		tx.UserScope = batch.UserScope
		tx.BankName = batch.BankName
		tx.Position = pos
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

func buildRow(row RawRow, fields FieldMap) (models.Transaction, bool) {
	var date models.NullDate
	if fields.Date != "" {
		if d, ok := ParseDate(row[fields.Date]); ok {
			date = models.NewDate(d)
		}
	}

	amount, amountOK := magnitude(row, fields)
	if !date.Valid && !amountOK {
		return models.Transaction{}, false
	}

	var description string
	if fields.Description != "" {
		description = cellString(row[fields.Description])
	}

	tx := models.Transaction{
		Date:         date,
		Description:  description,
		Amount:       amount.Round(2),
		Direction:    ResolveDirection(row, fields),
		MerchantName: merchant.DisplayName(description, merchantNameTokens),
	}
	if fields.Category != "" {
		if category := strings.TrimSpace(cellString(row[fields.Category])); category != "" {
			tx.Category = category
			tx.CategorySource = models.CategorySourceStatement
		}
	}
	tx.Signature = Signature(tx.Date, tx.Description, tx.SignedAmount())
	return tx, true
}

// Signature is the content identity of a transaction: a SHA-256 over the ISO
// date, the lowercased whitespace-collapsed description and the signed amount
// at two decimal places. It ignores category and storage IDs.
func Signature(date models.NullDate, description string, signedAmount decimal.Decimal) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(description)), " ")
	sum := sha256.Sum256([]byte(date.String() + "|" + normalized + "|" + signedAmount.StringFixed(2)))
	return hex.EncodeToString(sum[:])
}

// TransactionSignature recomputes the signature of a stored transaction.
func TransactionSignature(tx *models.Transaction) string {
	return Signature(tx.Date, tx.Description, tx.SignedAmount())
}
