package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as decimal strings; timestamps as Unix nanoseconds.
// direction is nullable: legacy rows have none and read as CONTACT_OWES_BUSINESS.
const schema = `
CREATE TABLE IF NOT EXISTS debts (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    business_unit_id TEXT NOT NULL DEFAULT '',
    contact_id TEXT NOT NULL,
    contact_name TEXT NOT NULL DEFAULT '',
    contact_phone TEXT NOT NULL DEFAULT '',
    direction TEXT,
    total_amount TEXT NOT NULL,
    paid_amount TEXT NOT NULL DEFAULT '0',
    source_transaction_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS debt_payments (
    id TEXT PRIMARY KEY,
    debt_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    contact_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    description TEXT,
    paid_at INTEGER NOT NULL,
    FOREIGN KEY (debt_id) REFERENCES debts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_debts_owner_created ON debts(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_debts_owner_contact ON debts(owner_id, contact_id);
CREATE INDEX IF NOT EXISTS idx_debt_payments_debt_paid ON debt_payments(debt_id, paid_at DESC);
CREATE INDEX IF NOT EXISTS idx_debt_payments_owner_contact ON debt_payments(owner_id, contact_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
