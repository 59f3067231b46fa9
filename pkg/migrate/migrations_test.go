package migrate_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"user_id uuid REFERENCES users (id) ON DELETE SET NULL",
		"CHECK (quantity >= 1)",
		"CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded'))",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created_at",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestPaymentIntentMigration(t *testing.T) {
	content := readMigration(t, "*_add_order_payment_intent.sql")
	assert.Contains(t, content, "ADD COLUMN IF NOT EXISTS payment_intent_id text")
	assert.Contains(t, content, "orders_payment_intent_id_key")
}

func TestUsersMigrationEnforcesUniqueEmail(t *testing.T) {
	content := readMigration(t, "*_create_users_table.sql")
	assert.Contains(t, content, "CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Product Tags!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_product_tags.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x ();\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_x.sql"), body, 0o644))
	assert.ErrorContains(t, migrate.ValidateDir(dir), "Down before Up")
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_b.sql"), body, 0o644))
	assert.ErrorContains(t, migrate.ValidateDir(dir), "duplicate migration version")
}

func TestRunRequiresDatabase(t *testing.T) {
	assert.ErrorContains(t, migrate.Run(context.Background(), nil, "migrations", "up", nil), "db is required")
}

func TestMaybeRunDevSkips(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	client := db.NewFromConn(nil)

	prod := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	prod.FeatureFlags.AutoMigrate = true
	require.NoError(t, migrate.MaybeRunDev(context.Background(), prod, logg, client))

	off := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	require.NoError(t, migrate.MaybeRunDev(context.Background(), off, logg, client))
	assert.Empty(t, buf.String())

	lite := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	lite.FeatureFlags.AutoMigrate = true
	lite.DB.Driver = db.DriverSQLite
	require.NoError(t, migrate.MaybeRunDev(context.Background(), lite, logg, client))
	assert.Contains(t, buf.String(), "skipping goose migrations")
}
