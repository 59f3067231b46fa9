package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  phone TEXT,
  is_admin INTEGER NOT NULL DEFAULT 0,
  is_verified INTEGER NOT NULL DEFAULT 0,
  auth_provider TEXT NOT NULL DEFAULT 'local',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  total_amount NUMERIC NOT NULL,
  address TEXT NOT NULL,
  phone TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_id TEXT,
  payment_intent_id TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  product_id TEXT,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  image_url TEXT
);`
	for _, stmt := range []string{users, orders, lineItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
		AuthProvider: enums.AuthProviderLocal,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func sampleOrder(userID *uuid.UUID, createdAt time.Time) *models.Order {
	return &models.Order{
		UserID:        userID,
		TotalAmount:   decimal.NewFromInt(2097),
		Address:       "12 MG Road, Pune",
		Phone:         "9876543210",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     createdAt,
		Items: []models.OrderLineItem{
			{Name: "Lipstick", UnitPrice: decimal.NewFromInt(499), Quantity: 1},
			{Name: "Blush", UnitPrice: decimal.NewFromInt(799), Quantity: 2},
		},
	}
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "Asha", "asha@example.com")

	order := sampleOrder(&user.ID, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.User)
	assert.Equal(t, "Asha", stored.User.Name)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(2097)))
	assert.Equal(t, "12 MG Road, Pune", stored.Address)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Lipstick", stored.Items[0].Name)
	assert.Equal(t, "Blush", stored.Items[1].Name)
	assert.Equal(t, 2, stored.Items[1].Quantity)
	assert.True(t, stored.Items[1].UnitPrice.Equal(decimal.NewFromInt(799)))
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
}

func TestRepositoryCreateRollsBackOnItemFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := sampleOrder(nil, time.Now().UTC())
	dup := uuid.New()
	order.Items[0].ID = dup
	order.Items[1].ID = dup
	require.Error(t, repo.Create(ctx, order))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryGuestOrderHasNoUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := sampleOrder(nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.UserID)
	assert.Nil(t, stored.User)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListsNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	asha := seedUser(t, db, "Asha", "asha@example.com")
	ravi := seedUser(t, db, "Ravi", "ravi@example.com")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := sampleOrder(&asha.ID, base)
	newer := sampleOrder(&asha.ID, base.Add(time.Hour))
	other := sampleOrder(&ravi.ID, base.Add(30*time.Minute))
	guest := sampleOrder(nil, base.Add(2*time.Hour))
	for _, o := range []*models.Order{older, newer, other, guest} {
		require.NoError(t, repo.Create(ctx, o))
	}

	mine, err := repo.ListByUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, guest.ID, all[0].ID)
	assert.Equal(t, newer.ID, all[1].ID)
	assert.Equal(t, other.ID, all[2].ID)
	require.NotNil(t, all[2].User)
	assert.Equal(t, "ravi@example.com", all[2].User.Email)
	assert.Equal(t, older.ID, all[3].ID)
}

func TestRepositoryPaymentUpdates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := sampleOrder(nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.AttachIntent(ctx, order.ID, "order_stale"))
	require.NoError(t, repo.AttachIntent(ctx, order.ID, "order_29QQoUBi66xm2f"))
	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentIntentID)
	assert.Equal(t, "order_29QQoUBi66xm2f", *stored.PaymentIntentID)

	assert.ErrorIs(t, repo.MarkPaid(ctx, order.ID, "order_stale", "pay_old"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkPaid(ctx, order.ID, "order_29QQoUBi66xm2f", "pay_29QQoUBi66xm2f"))
	stored, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_29QQoUBi66xm2f", *stored.PaymentID)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(2097)))

	assert.ErrorIs(t, repo.MarkPaid(ctx, order.ID, "order_29QQoUBi66xm2f", "pay_again"), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.AttachIntent(ctx, order.ID, "order_late"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusRefunded))
	stored, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, stored.PaymentStatus)

	assert.ErrorIs(t, repo.UpdatePaymentStatus(ctx, uuid.New(), enums.PaymentStatusPaid), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.MarkPaid(ctx, uuid.New(), "order_x", "pay_x"), gorm.ErrRecordNotFound)
}

func TestRepositoryMarkPaidRequiresBoundIntent(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	unbound := sampleOrder(nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, unbound))
	assert.ErrorIs(t, repo.MarkPaid(ctx, unbound.ID, "order_cheap", "pay_1"), gorm.ErrRecordNotFound)

	settled := sampleOrder(nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, settled))
	require.NoError(t, repo.AttachIntent(ctx, settled.ID, "order_settled"))
	require.NoError(t, repo.UpdatePaymentStatus(ctx, settled.ID, enums.PaymentStatusFailed))
	assert.ErrorIs(t, repo.MarkPaid(ctx, settled.ID, "order_settled", "pay_2"), gorm.ErrRecordNotFound)

	for id, want := range map[uuid.UUID]enums.PaymentStatus{
		unbound.ID: enums.PaymentStatusPending,
		settled.ID: enums.PaymentStatusFailed,
	} {
		stored, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.PaymentStatus)
		assert.Nil(t, stored.PaymentID)
	}
}

func TestRepositoryUserExists(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, db, "Asha", "asha@example.com")

	ok, err := repo.UserExists(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UserExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
