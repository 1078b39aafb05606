// Package gormstore keeps the dish catalog and orders through gorm, on
// SQLite for local runs and tests or on PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"restaurant-orders/internal/config"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

const activeCodeIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS dishes_active_code_key ON dishes (lower(code)) WHERE active`

// Store persists the dish catalog and orders through gorm
type Store struct {
	db       *gorm.DB
	logger   *logger.Logger
	postgres bool

	// afterRetire runs inside a sync once the old catalog is retired
	afterRetire func()
}

// SQLiteDSN returns a DSN for a SQLite file with foreign keys enforced
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", path)
}

// Open connects with the given driver and migrates the schema
func Open(ctx context.Context, driver, dsn string, log *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverGormPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if driver == config.DriverSQLite {
		// SQLite allows one writer; a single connection keeps transactions serialized
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{
		db:       db,
		logger:   log,
		postgres: db.Dialector.Name() == "postgres",
	}
	if err := s.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&dishRow{}, &orderRow{}, &orderLineRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(activeCodeIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create code index: %w", err)
	}
	s.logger.Info("migration_applied", "Schema migrated", "startup", map[string]interface{}{
		"dialect": s.db.Dialector.Name(),
	})
	return nil
}

// Close releases the underlying connections
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping tests the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ListDishes returns the active catalog ordered by code
func (s *Store) ListDishes(ctx context.Context) ([]models.Dish, error) {
	var rows []dishRow
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}

	dishes := make([]models.Dish, 0, len(rows))
	for _, r := range rows {
		dishes = append(dishes, r.toModel())
	}
	return dishes, nil
}

// ReplaceDishes makes dishes the whole active catalog in one transaction
func (s *Store) ReplaceDishes(ctx context.Context, dishes []models.Dish) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.postgres {
			if err := tx.Exec("LOCK TABLE dishes IN EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("failed to lock dishes: %w", err)
			}
		}

		err := tx.Model(&dishRow{}).Where("active = ?", true).Update("active", false).Error
		if err != nil {
			return fmt.Errorf("failed to retire dishes: %w", err)
		}
		if s.afterRetire != nil {
			s.afterRetire()
		}

		if len(dishes) > 0 {
			rows := make([]dishRow, 0, len(dishes))
			for _, d := range dishes {
				rows = append(rows, newDishRow(d, now))
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"code", "name", "price", "is_weighted", "full_path", "active", "synced_at"}),
			}).Create(&rows).Error
			if err != nil {
				return fmt.Errorf("failed to upsert dishes: %w", err)
			}
		}

		err = tx.Where("active = ? AND NOT EXISTS (SELECT 1 FROM order_lines l WHERE l.dish_id = dishes.id)", false).
			Delete(&dishRow{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete retired dishes: %w", err)
		}
		return nil
	})
}

// SaveOrder stores the order and replaces its lines in one transaction.
// created reports whether the order identity was new.
func (s *Store) SaveOrder(ctx context.Context, order *models.Order) (bool, error) {
	var (
		created   bool
		createdAt time.Time
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&orderRow{ID: order.ID, CreatedAt: time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("failed to insert order: %w", res.Error)
		}
		created = res.RowsAffected == 1

		var row orderRow
		if err := s.locking(tx, "UPDATE").Where("id = ?", order.ID).Take(&row).Error; err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		createdAt = row.CreatedAt

		if err := tx.Where("order_id = ?", order.ID).Delete(&orderLineRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete order lines: %w", err)
		}

		var dishRows []dishRow
		err := s.locking(tx, "SHARE").
			Where("id IN ? AND active = ?", models.LineDishIDs(order.Lines), true).
			Find(&dishRows).Error
		if err != nil {
			return fmt.Errorf("failed to query dishes: %w", err)
		}
		active := make(map[string]models.Dish, len(dishRows))
		for _, r := range dishRows {
			active[r.ID] = r.toModel()
		}
		if err := models.CheckOrderLines(order.Lines, active); err != nil {
			return err
		}

		lines := make([]orderLineRow, 0, len(order.Lines))
		for i, l := range order.Lines {
			lines = append(lines, orderLineRow{OrderID: order.ID, LineNo: i + 1, DishID: l.DishID, Quantity: l.Quantity})
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	order.CreatedAt = createdAt.UTC()
	return created, nil
}

// GetOrder returns a stored order with its lines joined to the catalog
func (s *Store) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	details := &models.OrderDetails{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row orderRow
		err := tx.Where("id = ?", id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query order: %w", err)
		}
		details.ID = row.ID
		details.CreatedAt = row.CreatedAt.UTC()

		err = tx.Table("order_lines AS l").
			Select("l.line_no, l.dish_id, d.code, d.name, d.price, d.is_weighted, l.quantity").
			Joins("JOIN dishes d ON d.id = l.dish_id").
			Where("l.order_id = ?", id).
			Order("l.line_no").
			Scan(&details.Lines).Error
		if err != nil {
			return fmt.Errorf("failed to query order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	details.Total = details.CalculateTotal()
	return details, nil
}

// locking adds a row lock clause on PostgreSQL; SQLite serializes writers itself
func (s *Store) locking(tx *gorm.DB, strength string) *gorm.DB {
	if !s.postgres {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}
