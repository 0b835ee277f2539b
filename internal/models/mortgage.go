package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssumableMortgage is an existing loan a buyer can take over.
// ListingID is informational only, mortgages are analysed as an independent population.
type AssumableMortgage struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id" yaml:"id"`
	ListingID       *string         `gorm:"type:varchar(36);index" json:"listingId" yaml:"listingId"`
	LoanType        string          `gorm:"type:varchar(50)" json:"loanType" yaml:"loanType"`
	CurrentBalance  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"currentBalance" yaml:"currentBalance"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"interestRate" yaml:"interestRate"`
	OriginationDate time.Time       `gorm:"not null" json:"originationDate" yaml:"originationDate"`
	RemainingTerm   int             `json:"remainingTerm" yaml:"remainingTerm"` // months
	CreatedAt       time.Time       `json:"createdAt" yaml:"-"`
	UpdatedAt       time.Time       `json:"updatedAt" yaml:"-"`
}

func (AssumableMortgage) TableName() string {
	return "assumable_mortgages"
}

func (m *AssumableMortgage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.OriginationDate = m.OriginationDate.UTC()
	return nil
}
