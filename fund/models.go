package fund

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// Fund is a private-equity fund tracked by the system.
type Fund struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"index"`
	VintageYear int     `json:"vintage_year"`
	Commitment  float64 `json:"commitment"`
	// NAV is the fund's current net asset value, updated as new valuations
	// arrive. It feeds the rvpi and tvpi metrics.
	NAV       float64               `json:"nav"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Deleted   soft_delete.DeletedAt `json:"-" gorm:"softDelete:flag;default:0"`
}

// CapitalCall is a drawdown of committed capital from the LPs.
type CapitalCall struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FundID      uint      `json:"fund_id" gorm:"index"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

// Distribution is a payout from the fund back to the LPs.
type Distribution struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FundID      uint      `json:"fund_id" gorm:"index"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Recallable  bool      `json:"recallable"`
	Description string    `json:"description"`
}

// Adjustment is a correction applied against called capital, such as a fee
// rebate. Adjustments reduce paid-in capital.
type Adjustment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FundID      uint      `json:"fund_id" gorm:"index"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}
