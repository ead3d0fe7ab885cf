package audit

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 1

// Schema creates the audit table. The table is insert-only; nothing in this
// package issues UPDATE or DELETE against it.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    user_id TEXT,
    status TEXT NOT NULL,
    details TEXT,
    policy_version TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_transaction ON audit_entries(transaction_id);
CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_entries(user_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_status ON audit_entries(status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the highest recorded schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

const insertEntry = `
INSERT INTO audit_entries (timestamp, event_type, transaction_id, user_id, status, details, policy_version)
VALUES (?, ?, ?, ?, ?, ?, ?)`
