package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates indexes gorm tags cannot express portably.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_chat_thread_user_updated",
			sql:  `CREATE INDEX IF NOT EXISTS idx_chat_thread_user_updated ON chat_thread(user_id, updated_at DESC)`,
		},
		{
			name: "idx_chat_thread_one_current",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_thread_one_current ON chat_thread(user_id) WHERE is_current = true`,
		},
		{
			name: "idx_job_run_claim",
			sql:  `CREATE INDEX IF NOT EXISTS idx_job_run_claim ON job_run(status, updated_at)`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
