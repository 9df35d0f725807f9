package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMemberTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		certificate_id TEXT NOT NULL,
		certificate_status TEXT NOT NULL DEFAULT 'pending_payment',
		certificate_expiry_date DATETIME,
		medical_answers_encrypted TEXT,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		subscription_status TEXT NOT NULL DEFAULT 'incomplete',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}
