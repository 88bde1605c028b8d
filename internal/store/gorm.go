package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
)

const pgUniqueViolation = "23505"

// EventRecord is one row of the session_events table.
type EventRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SessionCode string `gorm:"size:32;not null;uniqueIndex:idx_session_version_seq,priority:1"`
	Version     int    `gorm:"not null;uniqueIndex:idx_session_version_seq,priority:2"`
	Seq         int    `gorm:"not null;uniqueIndex:idx_session_version_seq,priority:3"`
	Type        string `gorm:"size:32;not null"`
	PlayerID    string `gorm:"size:32"`
	FromHex     string `gorm:"size:16"`
	ToHex       string `gorm:"size:16"`
	CreatedAt   time.Time
}

func (EventRecord) TableName() string { return "session_events" }

type GormJournal struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the journal table.
func OpenPostgres(dsn string) (*GormJournal, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormJournal(db)
}

func NewGormJournal(db *gorm.DB) (*GormJournal, error) {
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate session_events: %w", err)
	}
	return &GormJournal{db: db}, nil
}

func (j *GormJournal) Append(ctx context.Context, code string, version int, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]EventRecord, 0, len(events))
	for i, e := range events {
		rows = append(rows, EventRecord{
			SessionCode: code,
			Version:     version,
			Seq:         i,
			Type:        string(e.Type),
			PlayerID:    string(e.PlayerID),
			FromHex:     string(e.From),
			ToHex:       string(e.To),
		})
	}

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest sql.NullInt64
		row := tx.Model(&EventRecord{}).
			Where("session_code = ?", code).
			Select("MAX(version)").
			Row()
		if err := row.Scan(&latest); err != nil {
			return err
		}
		if latest.Valid && int(latest.Int64) >= version {
			return ErrVersionConflict
		}
		return tx.Create(&rows).Error
	})
	if isUniqueViolation(err) {
		return ErrVersionConflict
	}
	if err != nil && !errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("append %s v%d: %w", code, version, err)
	}
	return err
}

func (j *GormJournal) Load(ctx context.Context, code string) (int, []engine.Event, error) {
	var rows []EventRecord
	err := j.db.WithContext(ctx).
		Where("session_code = ?", code).
		Order("version, seq").
		Find(&rows).Error
	if err != nil {
		return 0, nil, fmt.Errorf("load %s: %w", code, err)
	}

	version := 0
	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		version = r.Version
		events = append(events, engine.Event{
			Type:     engine.EventType(r.Type),
			PlayerID: engine.PlayerID(r.PlayerID),
			From:     engine.HexID(r.FromHex),
			To:       engine.HexID(r.ToHex),
		})
	}
	return version, events, nil
}

func (j *GormJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
