package sqlite

// schema is applied in full on every open; all statements are
// idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	deal_id     TEXT NOT NULL,
	deal_type   TEXT NOT NULL,
	state       TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS facts (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	id            TEXT NOT NULL,
	domain        TEXT NOT NULL,
	entity        TEXT NOT NULL,
	claim         TEXT NOT NULL,
	attributes    TEXT,
	document_id   TEXT,
	location      TEXT,
	confidence    REAL NOT NULL,
	supersedes_id TEXT,
	created_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, id)
);
CREATE INDEX IF NOT EXISTS idx_facts_domain ON facts(run_id, domain);

CREATE TABLE IF NOT EXISTS gaps (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	id          TEXT NOT NULL,
	domain      TEXT NOT NULL,
	entity      TEXT NOT NULL,
	description TEXT NOT NULL,
	document_id TEXT,
	location    TEXT,
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS overlaps (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	id             TEXT NOT NULL,
	domain         TEXT NOT NULL,
	classification TEXT NOT NULL,
	target_fact_id TEXT,
	buyer_fact_id  TEXT,
	rationale      TEXT,
	PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS findings (
	run_id              TEXT NOT NULL REFERENCES runs(id),
	id                  TEXT NOT NULL,
	type                TEXT NOT NULL,
	domain              TEXT NOT NULL,
	severity            TEXT NOT NULL,
	description         TEXT NOT NULL,
	citations           TEXT NOT NULL,
	overlap_id          TEXT,
	integration_related INTEGER NOT NULL DEFAULT 0,
	target_action       TEXT,
	integration_option  TEXT,
	phase               TEXT,
	cost_category       TEXT,
	base_cost           REAL NOT NULL DEFAULT 0,
	merged_from         TEXT,
	created_at          TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, id)
);
CREATE INDEX IF NOT EXISTS idx_findings_type ON findings(run_id, type);

CREATE TABLE IF NOT EXISTS cost_estimates (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	work_item_id  TEXT NOT NULL,
	deal_type     TEXT NOT NULL,
	category      TEXT NOT NULL,
	base_cost     REAL NOT NULL,
	multiplier    REAL NOT NULL,
	adjusted_cost REAL NOT NULL,
	assumptions   TEXT,
	PRIMARY KEY (run_id, work_item_id)
);

CREATE TABLE IF NOT EXISTS tsa_estimates (
	run_id                TEXT PRIMARY KEY REFERENCES runs(id),
	deal_type             TEXT NOT NULL,
	shared_applications   INTEGER NOT NULL,
	shared_infrastructure INTEGER NOT NULL,
	monthly_cost          REAL NOT NULL,
	clamped               INTEGER NOT NULL DEFAULT 0,
	duration_months       INTEGER NOT NULL,
	total_cost            REAL NOT NULL,
	assumptions           TEXT
);

CREATE TABLE IF NOT EXISTS inventory_items (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	ord         INTEGER NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	item_count  INTEGER NOT NULL DEFAULT 0,
	annual_cost REAL NOT NULL DEFAULT 0,
	shared      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, ord)
);

CREATE TABLE IF NOT EXISTS domain_statuses (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	domain         TEXT NOT NULL,
	state          TEXT NOT NULL,
	overlap_count  INTEGER NOT NULL DEFAULT 0,
	finding_count  INTEGER NOT NULL DEFAULT 0,
	rejected_count INTEGER NOT NULL DEFAULT 0,
	error          TEXT,
	PRIMARY KEY (run_id, domain)
);

CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
