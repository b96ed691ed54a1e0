package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS billing_config (
    id                   INTEGER PRIMARY KEY,
    base_cost_per_second REAL NOT NULL DEFAULT 0.001,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS visits (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id          TEXT NOT NULL,
    session_id       TEXT NOT NULL,
    page_url         TEXT NOT NULL,
    start_time       TEXT NOT NULL,
    end_time         TEXT,
    duration_seconds REAL,
    cost             REAL,
    created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visits_user_created ON visits(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_visits_session ON visits(session_id);
`
