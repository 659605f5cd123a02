package store

// The entries foreign key documents ownership; deletes cascade explicitly in
// DeleteProfile because foreign_keys enforcement stays off, which lets
// entries exist under names that were never registered.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    name TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
    profile_name TEXT NOT NULL,
    host TEXT NOT NULL,
    address TEXT NOT NULL,
    PRIMARY KEY (profile_name, host),
    FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT
);
`

const (
	seedActive  = `INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`
	seedProfile = `INSERT OR IGNORE INTO profiles (name) VALUES (?)`
)
