package migrations

import (
	"fmt"

	"github.com/Anvoria/tokenly/internal/domain/principal"
	"github.com/Anvoria/tokenly/internal/domain/token"
	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&principal.Principal{}, &token.RefreshToken{}); err != nil {
		return fmt.Errorf("failed to make migrations: %w", err)
	}
	return nil
}
