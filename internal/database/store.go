package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-orders/internal/models"
)

// Store persists the dish catalog and orders in PostgreSQL
type Store struct {
	db *DB
}

// NewStore creates a store on top of an open connection pool
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Ping tests the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListDishes returns the active catalog. A single statement sees one
// committed snapshot, so a concurrent sync is either fully visible or not at all.
func (s *Store) ListDishes(ctx context.Context) ([]models.Dish, error) {
	rows, err := s.db.Query(ctx, ListActiveDishesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}
	defer rows.Close()

	dishes := []models.Dish{}
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dishes: %w", err)
	}
	return dishes, nil
}

// ReplaceDishes makes dishes the whole active catalog in one transaction.
// Dishes that disappear are retired, and deleted once no order line references them.
func (s *Store) ReplaceDishes(ctx context.Context, dishes []models.Dish) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, LockDishesSQL); err != nil {
		return fmt.Errorf("failed to lock dishes: %w", err)
	}
	if _, err := tx.Exec(ctx, RetireDishesSQL); err != nil {
		return fmt.Errorf("failed to retire dishes: %w", err)
	}

	batch := &pgx.Batch{}
	for _, d := range dishes {
		batch.Queue(UpsertDishSQL, d.ID, d.Code, d.Name, d.Price.String(), d.IsWeighted, d.FullPath)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert dishes: %w", err)
	}

	if _, err := tx.Exec(ctx, DeleteUnreferencedRetiredDishesSQL); err != nil {
		return fmt.Errorf("failed to delete retired dishes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveOrder stores the order and replaces its lines in one transaction.
// created reports whether the order identity was new.
func (s *Store) SaveOrder(ctx context.Context, order *models.Order) (created bool, err error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, InsertOrderSQL, order.ID)
	if err != nil {
		return false, fmt.Errorf("failed to insert order: %w", err)
	}
	created = tag.RowsAffected() == 1

	var createdAt time.Time
	if err := tx.QueryRow(ctx, LockOrderSQL, order.ID).Scan(&createdAt); err != nil {
		return false, fmt.Errorf("failed to lock order: %w", err)
	}

	if _, err := tx.Exec(ctx, DeleteOrderLinesSQL, order.ID); err != nil {
		return false, fmt.Errorf("failed to delete order lines: %w", err)
	}

	active, err := activeDishes(ctx, tx, models.LineDishIDs(order.Lines))
	if err != nil {
		return false, err
	}
	if err := models.CheckOrderLines(order.Lines, active); err != nil {
		return false, err
	}

	batch := &pgx.Batch{}
	for i, l := range order.Lines {
		batch.Queue(InsertOrderLineSQL, order.ID, i+1, l.DishID, l.Quantity.String())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, fmt.Errorf("failed to insert order lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.CreatedAt = createdAt.UTC()
	return created, nil
}

// GetOrder returns a stored order with its lines joined to the catalog
func (s *Store) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	details := &models.OrderDetails{}
	err = tx.QueryRow(ctx, GetOrderSQL, id).Scan(&details.ID, &details.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	details.CreatedAt = details.CreatedAt.UTC()

	rows, err := tx.Query(ctx, GetOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line          models.OrderLineDetail
			price, amount string
		)
		if err := rows.Scan(&line.LineNo, &line.DishID, &line.Code, &line.Name, &price, &line.IsWeighted, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if line.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		if line.Quantity, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		details.Lines = append(details.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}

	details.Total = details.CalculateTotal()
	return details, nil
}

func activeDishes(ctx context.Context, tx pgx.Tx, ids []string) (map[string]models.Dish, error) {
	rows, err := tx.Query(ctx, SelectActiveDishesForShareSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}
	defer rows.Close()

	active := make(map[string]models.Dish, len(ids))
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		active[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dishes: %w", err)
	}
	return active, nil
}

func scanDish(row pgx.Row) (models.Dish, error) {
	var (
		d     models.Dish
		price string
	)
	if err := row.Scan(&d.ID, &d.Code, &d.Name, &price, &d.IsWeighted, &d.FullPath); err != nil {
		return models.Dish{}, fmt.Errorf("failed to scan dish: %w", err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return models.Dish{}, fmt.Errorf("failed to parse price: %w", err)
	}
	d.Price = p
	return d, nil
}
