package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

const migrateLockID int64 = 40917231

type migration struct {
	version int
	name    string
	run     func(tx *gorm.DB) error
}

// The migration list is append-only; each entry runs at most once and is
// recorded in schema_migrations.
var migrations = []migration{
	{
		version: 1,
		name:    "create core tables",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&UserModel{}, &NoteModel{}, &ActivityModel{}, &FriendLinkModel{})
		},
	},
	{
		version: 2,
		name:    "backfill user plan and usage defaults",
		run: func(tx *gorm.DB) error {
			if err := tx.Exec(`UPDATE users SET plan = 'Free' WHERE plan IS NULL OR plan = ''`).Error; err != nil {
				return err
			}
			return tx.Exec(`UPDATE users SET ai_usage_count = 0 WHERE ai_usage_count IS NULL`).Error
		},
	},
	{
		version: 3,
		name:    "backfill note kind default",
		run: func(tx *gorm.DB) error {
			return tx.Exec(`UPDATE notes SET type = 'note' WHERE type IS NULL OR type = ''`).Error
		},
	},
}

// applyMigrations runs every unapplied migration in order, serialized across
// processes with a Postgres advisory lock.
func applyMigrations(db *gorm.DB) error {
	return withMigrationLock(db, func(db *gorm.DB) error {
		if err := db.AutoMigrate(&SchemaMigrationModel{}); err != nil {
			return fmt.Errorf("migrate schema_migrations: %w", err)
		}
		applied := make(map[int]bool)
		var rows []SchemaMigrationModel
		if err := db.Find(&rows).Error; err != nil {
			return fmt.Errorf("read schema_migrations: %w", err)
		}
		for _, row := range rows {
			applied[row.Version] = true
		}
		for _, m := range migrations {
			if applied[m.version] {
				continue
			}
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := m.run(tx); err != nil {
					return err
				}
				return tx.Create(&SchemaMigrationModel{
					Version:   m.version,
					Name:      m.name,
					AppliedAt: time.Now().UTC(),
				}).Error
			})
			if err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
			}
			slog.Info("schema migration applied", "version", m.version, "name", m.name)
		}
		return nil
	})
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}
