package migrations

import (
	"fmt"

	"gorm.io/gorm"

	catalogpg "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/persistence/postgres"
	orderspg "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	userspg "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/persistence/postgres"
)

// Run applies the relational schema of every bounded context in one pass.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	var models []any
	models = append(models, catalogpg.Models()...)
	models = append(models, orderspg.Models()...)
	models = append(models, userspg.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := catalogpg.EnsureIndexes(db); err != nil {
		return fmt.Errorf("catalog indexes: %w", err)
	}
	if err := userspg.EnsureIndexes(db); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}
