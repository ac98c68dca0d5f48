package models

// Upload is one imported statement batch. Deleting it deletes its transactions.
type Upload struct {
	Base
	UserScope     string        `gorm:"not null;index" json:"-"`
	BankName      string        `gorm:"not null" json:"bank_name"`
	FileName      string        `json:"file_name"`
	RowCount      int           `gorm:"not null;default:0" json:"row_count"`
	SkippedRows   int           `gorm:"not null;default:0" json:"skipped_rows"`
	DuplicateRows int           `gorm:"not null;default:0" json:"duplicate_rows"`
	Transactions  []Transaction `gorm:"foreignKey:UploadID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}
