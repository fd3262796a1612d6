package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos-backend/internal/config"
	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/ledger"
)

// These tests run against a real database and are skipped unless
// DATABASE_URL points at a disposable Postgres instance.

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testDB(t *testing.T) *db.Postgres {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pg, err := db.New(ctx, config.Config{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.Migrate(ctx))
	require.NoError(t, RegisterRepository{DB: pg}.SeedDefaults(ctx))
	return pg
}

func newCashier(t *testing.T, pg *db.Postgres) *domain.User {
	t.Helper()
	u, err := UserRepository{DB: pg}.Create(context.Background(), CreateUserParams{
		Username:     "kasir-" + uuid.NewString(),
		PasswordHash: "x",
		FullName:     "Kasir",
		Role:         domain.RoleCashier,
	})
	require.NoError(t, err)
	return u
}

func newProduct(t *testing.T, pg *db.Postgres, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := ProductRepository{DB: pg}.Save(context.Background(), domain.Product{
		Name:     "Teh Botol",
		Barcode:  "it-" + uuid.NewString(),
		Price:    d(price),
		Stock:    stock,
		Category: "Drinks",
	})
	require.NoError(t, err)
	return p
}

func exact(total decimal.Decimal) (Pricing, error) {
	return Pricing{DiscountType: domain.DiscountPercentage, DiscountedTotal: total, PaymentAmount: total}, nil
}

func TestShiftCashFlowAgainstPostgres(t *testing.T) {
	pg := testDB(t)
	ctx := context.Background()
	shifts := ShiftRepository{DB: pg}
	txs := TransactionRepository{DB: pg}
	products := ProductRepository{DB: pg}

	user := newCashier(t, pg)
	product := newProduct(t, pg, 5000, 3)
	reg, err := RegisterRepository{DB: pg}.Default(ctx)
	require.NoError(t, err)

	shiftID, err := shifts.Open(ctx, user.ID, reg.ID, d(100000))
	require.NoError(t, err)

	shift, err := shifts.GetByID(ctx, shiftID)
	require.NoError(t, err)
	assert.True(t, shift.ExpectedCash.Equal(d(100000)), "expected cash %s", shift.ExpectedCash)

	_, err = shifts.Open(ctx, user.ID, reg.ID, d(1))
	assert.ErrorIs(t, err, domain.ErrShiftAlreadyOpen)

	sale, err := txs.Create(ctx, CreateTransactionInput{
		UserID:        user.ID,
		PaymentMethod: domain.PaymentCash,
		Items:         []CreateTransactionItem{{ProductID: product.ID, Quantity: 2}},
	}, exact)
	require.NoError(t, err)
	require.NotNil(t, sale.ShiftID)
	assert.Equal(t, shiftID, *sale.ShiftID)
	assert.True(t, sale.DiscountedTotal.Equal(d(10000)))

	stocked, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stocked.Stock)

	shift, err = shifts.GetByID(ctx, shiftID)
	require.NoError(t, err)
	assert.True(t, shift.ExpectedCash.Equal(d(110000)), "expected cash %s", shift.ExpectedCash)

	movements, err := shifts.Movements(ctx, shiftID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, domain.MovementSale, movements[1].MovementType)
	require.NotNil(t, movements[1].TransactionID)
	assert.Equal(t, sale.ID, *movements[1].TransactionID)

	_, err = txs.Create(ctx, CreateTransactionInput{
		UserID:        user.ID,
		PaymentMethod: domain.PaymentCash,
		Items:         []CreateTransactionItem{{ProductID: product.ID, Quantity: 5}},
	}, exact)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stocked, err = products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stocked.Stock)

	report, err := shifts.Close(ctx, CloseShiftInput{ShiftID: shiftID, UserID: user.ID, ActualCash: d(105000)}, ledger.BuildReport)
	require.NoError(t, err)
	require.NotNil(t, report.Data.CashSummary.Difference)
	assert.True(t, report.Data.CashSummary.Difference.Equal(d(-5000)))

	closed, err := shifts.GetByID(ctx, shiftID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftClosed, closed.Status)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.Equal(d(-5000)))

	stored, err := ReportRepository{DB: pg}.GetByShift(ctx, shiftID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)
	assert.True(t, stored.Data.CashSummary.ExpectedCash.Equal(d(110000)))

	_, err = shifts.Close(ctx, CloseShiftInput{ShiftID: shiftID, UserID: user.ID, ActualCash: d(1)}, ledger.BuildReport)
	assert.ErrorIs(t, err, domain.ErrShiftClosed)

	_, err = shifts.Current(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaleWithoutShiftLeavesNoMovement(t *testing.T) {
	pg := testDB(t)
	ctx := context.Background()

	user := newCashier(t, pg)
	product := newProduct(t, pg, 2500, 10)

	sale, err := TransactionRepository{DB: pg}.Create(ctx, CreateTransactionInput{
		UserID:        user.ID,
		PaymentMethod: domain.PaymentCard,
		Items:         []CreateTransactionItem{{ProductID: product.ID, Quantity: 4}},
	}, exact)
	require.NoError(t, err)
	assert.Nil(t, sale.ShiftID)

	stocked, err := ProductRepository{DB: pg}.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stocked.Stock)

	err = ProductRepository{DB: pg}.Delete(ctx, product.ID)
	assert.ErrorIs(t, err, domain.ErrInUse)
}
