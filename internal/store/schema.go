package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS auth_token (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    token                TEXT NOT NULL,
    saved_at             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
    path                 TEXT PRIMARY KEY,
    body                 BLOB NOT NULL,
    fetched_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);
`
