// Package console runs the interactive order prompt on top of a
// RestaurantClient.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"restaurant-orders/internal/client"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/orderinput"
)

type Console struct {
	client      client.RestaurantClient
	out         io.Writer
	logger      *logger.Logger
	timeout     time.Duration
	maxAttempts int
	newID       func() string
}

func New(c client.RestaurantClient, out io.Writer, log *logger.Logger, timeout time.Duration, maxAttempts int) *Console {
	return &Console{
		client:      c,
		out:         out,
		logger:      log,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		newID:       uuid.NewString,
	}
}

func (c *Console) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Console) FetchMenu(ctx context.Context) ([]models.Dish, error) {
	fetchCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	dishes, err := c.client.FetchDishes(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	return dishes, nil
}

func (c *Console) PrintMenu(dishes []models.Dish) {
	fmt.Fprintln(c.out, "Menu:")
	for _, d := range dishes {
		unit := "pcs"
		if d.IsWeighted {
			unit = "kg"
		}
		fmt.Fprintf(c.out, "  %-5s %-30s %10s / %s\n", d.Code, d.Name, d.Price.StringFixed(2), unit)
	}
	fmt.Fprintln(c.out, "Enter an order as code:qty;code:qty (empty line to quit)")
}

// Run reads one order per line from in until an empty line or EOF.
// Rejected input and failed submissions are reported and the prompt
// continues.
func (c *Console) Run(ctx context.Context, dishes []models.Dish, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, err := orderinput.Parse(text, dishes)
		if err != nil {
			fmt.Fprintf(c.out, "Invalid order: %v\n", err)
			continue
		}
		c.submit(ctx, &models.Order{ID: c.newID(), Lines: lines}, dishes)
	}
}

func (c *Console) submit(ctx context.Context, o *models.Order, dishes []models.Dish) {
	submitCtx, cancel := c.withTimeout(ctx)
	ok, err := client.SubmitWithRetry(submitCtx, c.client, o, c.maxAttempts)
	cancel()

	switch {
	case err != nil:
		c.logger.Error("order_submit_failed", "Failed to submit order", o.ID, err, nil)
		fmt.Fprintf(c.out, "Order %s was not accepted: %v\n", o.ID, err)
	case !ok:
		fmt.Fprintf(c.out, "Order %s was not accepted\n", o.ID)
	default:
		summary, err := orderinput.Format(o.Lines, dishes)
		if err != nil {
			summary = fmt.Sprintf("%d lines", len(o.Lines))
		}
		c.logger.Info("order_submitted", "Order accepted", o.ID, map[string]interface{}{
			"lines": len(o.Lines),
		})
		fmt.Fprintf(c.out, "Order %s accepted: %s\n", o.ID, summary)
	}
}
