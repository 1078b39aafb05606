package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// stubClient answers SubmitOrder from a queue of errors, then accepts
type stubClient struct {
	menu      []models.Dish
	fetchErr  error
	submitErr []error
	submitted []*models.Order
}

func (s *stubClient) FetchDishes(ctx context.Context) ([]models.Dish, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.menu, nil
}

func (s *stubClient) SubmitOrder(ctx context.Context, o *models.Order) (bool, error) {
	s.submitted = append(s.submitted, o)
	if len(s.submitErr) > 0 {
		err := s.submitErr[0]
		s.submitErr = s.submitErr[1:]
		return false, err
	}
	return true, nil
}

func menu() []models.Dish {
	return []models.Dish{
		{ID: "dish-caesar", Code: "A01", Name: "Caesar salad", Price: decimal.NewFromInt(250)},
		{ID: "dish-borscht", Code: "A02", Name: "Borscht", Price: decimal.RequireFromString("150.5"), IsWeighted: true},
	}
}

func newTestConsole(c *stubClient, out *bytes.Buffer) *Console {
	con := New(c, out, logger.Discard(), time.Second, 3)
	con.newID = func() string { return "order-1" }
	return con
}

func TestRun(t *testing.T) {
	transient := &models.TransportError{Op: "SendOrder", Err: errors.New("connection reset")}

	tests := []struct {
		name          string
		input         string
		submitErr     []error
		wantSubmitted int
		wantOut       []string
		dontWant      []string
	}{
		{
			name:          "accepted order is echoed",
			input:         "a01:2; A02:0.5\n",
			wantSubmitted: 1,
			wantOut:       []string{"Order order-1 accepted: A01:2;A02:0.5"},
		},
		{
			name:          "invalid input is reported and not sent",
			input:         "A01:0\nA99:1\n\n",
			wantSubmitted: 0,
			wantOut: []string{
				`Invalid order: quantity: quantity for A01 must be a number greater than 0 ("0")`,
				"dish A99 not found, valid codes: A01, A02",
			},
		},
		{
			name:          "application error is not retried",
			input:         "A01:1\n",
			submitErr:     []error{&models.ApplicationError{Message: "dish is not in the current menu"}},
			wantSubmitted: 1,
			wantOut:       []string{"Order order-1 was not accepted: dish is not in the current menu"},
			dontWant:      []string{"Order order-1 accepted"},
		},
		{
			name:          "transport error is retried",
			input:         "A01:1\n",
			submitErr:     []error{transient},
			wantSubmitted: 2,
			wantOut:       []string{"Order order-1 accepted: A01:1"},
		},
		{
			name:          "empty line quits",
			input:         "\nA01:1\n",
			wantSubmitted: 0,
			dontWant:      []string{"Order"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubClient{menu: menu(), submitErr: tt.submitErr}
			var out bytes.Buffer

			err := newTestConsole(c, &out).Run(context.Background(), menu(), strings.NewReader(tt.input))
			require.NoError(t, err)

			assert.Len(t, c.submitted, tt.wantSubmitted)
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
			for _, unwanted := range tt.dontWant {
				assert.NotContains(t, out.String(), unwanted)
			}
		})
	}
}

func TestRun_SubmitsParsedLines(t *testing.T) {
	c := &stubClient{menu: menu()}
	var out bytes.Buffer

	require.NoError(t, newTestConsole(c, &out).Run(context.Background(), menu(), strings.NewReader("A02:1.25;A01:3")))
	require.Len(t, c.submitted, 1)

	o := c.submitted[0]
	assert.Equal(t, "order-1", o.ID)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "dish-borscht", o.Lines[0].DishID)
	assert.Equal(t, "1.25", o.Lines[0].Quantity.String())
	assert.Equal(t, "dish-caesar", o.Lines[1].DishID)
}

func TestFetchAndPrintMenu(t *testing.T) {
	var out bytes.Buffer
	con := newTestConsole(&stubClient{menu: menu()}, &out)

	dishes, err := con.FetchMenu(context.Background())
	require.NoError(t, err)
	con.PrintMenu(dishes)

	assert.Contains(t, out.String(), "A01")
	assert.Contains(t, out.String(), "250.00 / pcs")
	assert.Contains(t, out.String(), "150.50 / kg")

	_, err = newTestConsole(&stubClient{fetchErr: &models.TransportError{Op: "GetMenu", Err: errors.New("timeout")}}, &out).
		FetchMenu(context.Background())
	assert.True(t, models.IsTransport(err))
}
