package database

// Dish queries
const (
	ListActiveDishesSQL = `
		SELECT id, code, name, price::text, is_weighted, full_path
		FROM dishes
		WHERE active
		ORDER BY code, id`

	LockDishesSQL = `LOCK TABLE dishes IN EXCLUSIVE MODE`

	RetireDishesSQL = `UPDATE dishes SET active = FALSE WHERE active`

	UpsertDishSQL = `
		INSERT INTO dishes (id, code, name, price, is_weighted, full_path, active, synced_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, TRUE, NOW())
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			is_weighted = EXCLUDED.is_weighted,
			full_path = EXCLUDED.full_path,
			active = TRUE,
			synced_at = NOW()`

	DeleteUnreferencedRetiredDishesSQL = `
		DELETE FROM dishes d
		WHERE NOT d.active
		  AND NOT EXISTS (SELECT 1 FROM order_lines l WHERE l.dish_id = d.id)`

	// Shares the rows with concurrent submissions and blocks a sync until commit
	SelectActiveDishesForShareSQL = `
		SELECT id, code, name, price::text, is_weighted, full_path
		FROM dishes
		WHERE id = ANY($1) AND active
		FOR SHARE`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`

	LockOrderSQL = `SELECT created_at FROM orders WHERE id = $1 FOR UPDATE`

	DeleteOrderLinesSQL = `DELETE FROM order_lines WHERE order_id = $1`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, line_no, dish_id, quantity)
		VALUES ($1, $2, $3, $4::numeric)`

	GetOrderSQL = `SELECT id, created_at FROM orders WHERE id = $1`

	GetOrderLinesSQL = `
		SELECT l.line_no, l.dish_id, d.code, d.name, d.price::text, d.is_weighted, l.quantity::text
		FROM order_lines l
		JOIN dishes d ON d.id = l.dish_id
		WHERE l.order_id = $1
		ORDER BY l.line_no ASC`
)
