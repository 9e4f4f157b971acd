package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/littlelemon/internal/model"
)

func TestMoneyConversion(t *testing.T) {
	assert.True(t, decimal.RequireFromString("13.00").Equal(centsToDecimal(1300)))
	assert.Equal(t, "5.05", centsToDecimal(505).StringFixed(2))

	cents, err := decimalToCents(decimal.RequireFromString("5"))
	require.NoError(t, err)
	assert.Equal(t, int64(500), cents)

	cents, err = decimalToCents(decimal.RequireFromString("9.99"))
	require.NoError(t, err)
	assert.Equal(t, int64(999), cents)

	_, err = decimalToCents(decimal.RequireFromString("100000000000000000.00"))
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)
}

func TestCentsArithmeticDoesNotWrap(t *testing.T) {
	price, err := mulCents(500, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), price)

	_, err = mulCents(math.MaxInt64/2, 3)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	total, err := addCents(1000, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), total)

	_, err = addCents(math.MaxInt64-10, 11)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "total", ve.Field)
}

func TestBuildOrderLines(t *testing.T) {
	tests := []struct {
		name      string
		cart      []cartRow
		wantLines []orderLine
		wantTotal int64
		wantErr   error
		wantField string
	}{
		{
			name:    "empty cart",
			wantErr: model.ErrEmptyCart,
		},
		{
			name: "salad and dessert",
			cart: []cartRow{
				{id: 7, menuItemID: 1, quantity: 2, unitPrice: 500},
				{id: 9, menuItemID: 2, quantity: 1, unitPrice: 300},
			},
			wantLines: []orderLine{
				{position: 0, menuItemID: 1, quantity: 2, unitPrice: 500, price: 1000},
				{position: 1, menuItemID: 2, quantity: 1, unitPrice: 300, price: 300},
			},
			wantTotal: 1300,
		},
		{
			name: "duplicate menu item stays two lines",
			cart: []cartRow{
				{id: 1, menuItemID: 4, quantity: 1, unitPrice: 950},
				{id: 2, menuItemID: 4, quantity: 1, unitPrice: 950},
			},
			wantLines: []orderLine{
				{position: 0, menuItemID: 4, quantity: 1, unitPrice: 950, price: 950},
				{position: 1, menuItemID: 4, quantity: 1, unitPrice: 950, price: 950},
			},
			wantTotal: 1900,
		},
		{
			name: "free item",
			cart: []cartRow{
				{id: 1, menuItemID: 3, quantity: 5, unitPrice: 0},
			},
			wantLines: []orderLine{
				{position: 0, menuItemID: 3, quantity: 5, unitPrice: 0, price: 0},
			},
			wantTotal: 0,
		},
		{
			name: "line overflow",
			cart: []cartRow{
				{id: 1, menuItemID: 1, quantity: math.MaxInt32, unitPrice: 500000000000000},
			},
			wantField: "quantity",
		},
		{
			name: "total overflow",
			cart: []cartRow{
				{id: 1, menuItemID: 1, quantity: 1, unitPrice: math.MaxInt64 - 1},
				{id: 2, menuItemID: 2, quantity: 1, unitPrice: 2},
			},
			wantField: "total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, total, err := buildOrderLines(tt.cart)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var ve *model.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantLines, lines)
				assert.Equal(t, tt.wantTotal, total)

				var sum int64
				for _, l := range lines {
					assert.Equal(t, l.unitPrice*int64(l.quantity), l.price)
					sum += l.price
				}
				assert.Equal(t, total, sum)
			}
		})
	}
}

func TestOrderByClause(t *testing.T) {
	fields := []model.OrderingField{
		{Name: "total", Desc: true},
		{Name: "date"},
		{Name: "password"},
	}
	got := orderByClause(fields, OrderSortColumns, "o.id")
	assert.Equal(t, " ORDER BY o.total DESC, o.date, o.id", got)

	assert.Equal(t, " ORDER BY m.id", orderByClause(nil, MenuSortColumns, "m.id"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}

func TestWithRetry(t *testing.T) {
	r := &PostgresRepository{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	t.Run("retries serialization failure", func(t *testing.T) {
		calls := 0
		err := r.withRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all delays", func(t *testing.T) {
		calls := 0
		err := r.withRetry(context.Background(), func() error {
			calls++
			return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("domain errors are not retried", func(t *testing.T) {
		calls := 0
		err := r.withRetry(context.Background(), func() error {
			calls++
			return model.ErrEmptyCart
		})
		assert.True(t, errors.Is(err, model.ErrEmptyCart))
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := r.withRetry(ctx, func() error {
			calls++
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
