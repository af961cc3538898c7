package store

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	profile TEXT NOT NULL,
	total INTEGER DEFAULT 0,
	skipped INTEGER DEFAULT 0,
	succeeded INTEGER DEFAULT 0,
	failed INTEGER DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	error TEXT
);

CREATE TABLE IF NOT EXISTS attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	track_id TEXT,
	artist TEXT,
	title TEXT,
	album TEXT,
	outcome TEXT NOT NULL,
	state TEXT NOT NULL,
	trail TEXT,  -- JSON array of states
	reason TEXT,
	note TEXT,
	peer TEXT,
	filename TEXT,
	score REAL DEFAULT 0,
	final_path TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

	FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
