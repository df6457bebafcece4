package fund

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound reports a fund id with no live record behind it.
var ErrNotFound = errors.New("fund not found")

// Store holds funds and their transaction ledgers.
type Store struct {
	db *gorm.DB
}

// Open opens the fund database at path, creating it and migrating the schema
// if needed. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open fund db %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Fund{}, &CapitalCall{}, &Distribution{}, &Adjustment{}); err != nil {
		return nil, fmt.Errorf("migrate fund db: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateFund inserts a new fund and fills in its id.
func (s *Store) CreateFund(f *Fund) error {
	return s.db.Create(f).Error
}

// Fund fetches a fund by id. Returns ErrNotFound if there is no such fund.
func (s *Store) Fund(id uint) (*Fund, error) {
	var f Fund
	if err := s.db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Funds lists all live funds.
func (s *Store) Funds() ([]Fund, error) {
	var v []Fund
	if err := s.db.Order("id").Find(&v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateFund saves changed fund fields.
func (s *Store) UpdateFund(f *Fund) error {
	return s.db.Save(f).Error
}

// DeleteFund soft-deletes a fund. Its ledgers are kept.
func (s *Store) DeleteFund(id uint) error {
	res := s.db.Delete(&Fund{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCapitalCall appends a capital call to a fund's ledger.
func (s *Store) AddCapitalCall(c *CapitalCall) error {
	return s.db.Create(c).Error
}

// AddDistribution appends a distribution to a fund's ledger.
func (s *Store) AddDistribution(d *Distribution) error {
	return s.db.Create(d).Error
}

// AddAdjustment appends an adjustment to a fund's ledger.
func (s *Store) AddAdjustment(a *Adjustment) error {
	return s.db.Create(a).Error
}

// CapitalCalls returns a fund's capital calls in date order.
func (s *Store) CapitalCalls(fundID uint) ([]CapitalCall, error) {
	var v []CapitalCall
	err := s.db.Where("fund_id = ?", fundID).Order("date").Find(&v).Error
	return v, err
}

// Distributions returns a fund's distributions in date order.
func (s *Store) Distributions(fundID uint) ([]Distribution, error) {
	var v []Distribution
	err := s.db.Where("fund_id = ?", fundID).Order("date").Find(&v).Error
	return v, err
}

// Adjustments returns a fund's adjustments, in date order.
func (s *Store) Adjustments(fundID uint) ([]Adjustment, error) {
	var v []Adjustment
	err := s.db.Where("fund_id = ?", fundID).Order("date").Find(&v).Error
	return v, err
}

// Page is one page of a fund's transaction ledger.
type Page struct {
	// Items is a slice of the ledger's record type.
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// Transactions pages through one of a fund's ledgers. kind is one of
// "capital_calls", "distributions", or "adjustments"; page counts from 1.
func (s *Store) Transactions(fundID uint, kind string, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	var model any
	switch kind {
	case "capital_calls":
		model = &[]CapitalCall{}
	case "distributions":
		model = &[]Distribution{}
	case "adjustments":
		model = &[]Adjustment{}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", kind)
	}
	var total int64
	if err := s.db.Model(model).Where("fund_id = ?", fundID).Count(&total).Error; err != nil {
		return nil, err
	}
	err := s.db.Where("fund_id = ?", fundID).
		Order("date").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(model).Error
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{Items: model, Total: total, Page: page, Pages: pages}, nil
}

// sum totals the amount column of one ledger model for a fund.
func (s *Store) sum(model any, fundID uint) (float64, error) {
	var total float64
	err := s.db.Model(model).
		Where("fund_id = ?", fundID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
