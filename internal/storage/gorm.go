package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/connect-router/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// policyRow is the SQL shape of a policy record.
type policyRow struct {
	ID                 uint64   `gorm:"primaryKey;autoIncrement:false"`
	Prefix             *string  `gorm:"size:64"` // policy.MaxPrefixLength
	IgnoreOrigin       bool     `gorm:"not null"`
	IgnoredChannels    []uint64 `gorm:"serializer:json;type:text"`
	MinSkips           int      `gorm:"not null"`
	Volume             float64  `gorm:"not null"`
	SendStatusMessages bool     `gorm:"not null"`
}

// TableName implements gorm's tabler interface.
func (policyRow) TableName() string {
	return "guild_policies"
}

func rowFrom(rec policy.Record) policyRow {
	return policyRow{
		ID:                 rec.ID,
		Prefix:             rec.Prefix,
		IgnoreOrigin:       rec.IgnoreOrigin,
		IgnoredChannels:    rec.IgnoredChannels,
		MinSkips:           rec.MinSkips,
		Volume:             rec.Volume,
		SendStatusMessages: rec.SendStatusMessages,
	}
}

func (r policyRow) record() policy.Record {
	channels := r.IgnoredChannels
	if channels == nil {
		channels = []uint64{}
	}
	return policy.Record{
		ID:                 r.ID,
		Prefix:             r.Prefix,
		IgnoreOrigin:       r.IgnoreOrigin,
		IgnoredChannels:    channels,
		MinSkips:           r.MinSkips,
		Volume:             r.Volume,
		SendStatusMessages: r.SendStatusMessages,
	}
}

// Gorm keeps policy records in a SQL table. The bucket is the primary key,
// which makes the database the arbiter of concurrent first inserts.
type Gorm struct {
	db *gorm.DB
}

// OpenGorm opens the database and migrates the policy table.
func OpenGorm(dialector gorm.Dialector) (*Gorm, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewGorm(db)
}

// NewGorm wraps an open connection and migrates the policy table.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&policyRow{}); err != nil {
		return nil, fmt.Errorf("migrate guild_policies: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, bucket uint64) (policy.Record, bool, error) {
	var row policyRow
	err := g.db.WithContext(ctx).Take(&row, "id = ?", bucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.Record{}, false, nil
	}
	if err != nil {
		return policy.Record{}, false, err
	}
	return row.record(), true, nil
}

func (g *Gorm) InsertIfAbsent(ctx context.Context, rec policy.Record) (policy.Record, error) {
	row := rowFrom(rec)
	if err := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return policy.Record{}, err
	}

	// re-read: a concurrent writer may have won the insert
	var stored policyRow
	if err := g.db.WithContext(ctx).Take(&stored, "id = ?", rec.ID).Error; err != nil {
		return policy.Record{}, err
	}
	return stored.record(), nil
}

func (g *Gorm) Put(ctx context.Context, rec policy.Record) error {
	row := rowFrom(rec)
	return g.db.WithContext(ctx).Save(&row).Error
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
