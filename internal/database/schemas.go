package database

// schemas maps database names to their embedded schema SQL.
// All statements are idempotent so Migrate can run on every startup.
var schemas = map[string]string{
	"config": configSchema,
	"cache":  cacheSchema,
}

// configSchema holds the registry and lookup tables the engine treats as
// injected collaborators: the strategy registry, the jurisdiction tax-rate
// table, and the wash-sale substitution table.
const configSchema = `
CREATE TABLE IF NOT EXISTS strategies (
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    risk_level          TEXT NOT NULL CHECK (risk_level IN ('conservative', 'moderate', 'aggressive')),
    rebalance_frequency TEXT NOT NULL CHECK (rebalance_frequency IN ('monthly', 'quarterly', 'annually')),
    threshold_tolerance REAL NOT NULL CHECK (threshold_tolerance >= 0 AND threshold_tolerance <= 1),
    tax_optimized       INTEGER NOT NULL DEFAULT 0,
    target_allocation   TEXT NOT NULL, -- JSON object: category -> weight
    updated_at          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tax_jurisdictions (
    location                 TEXT PRIMARY KEY,
    fed_ordinary_income      REAL NOT NULL,
    fed_short_term_gains     REAL NOT NULL,
    fed_long_term_gains      REAL NOT NULL,
    fed_qualified_dividends  REAL NOT NULL,
    state_ordinary_income    REAL NOT NULL,
    state_capital_gains      REAL NOT NULL,
    state_dividends          REAL NOT NULL,
    zero_investment_income   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS substitutions (
    ticker             TEXT PRIMARY KEY,
    category           TEXT NOT NULL,
    replacement_ticker TEXT NOT NULL
);

-- Seed: five named strategies. INSERT OR IGNORE keeps user edits intact.
INSERT OR IGNORE INTO strategies (id, name, risk_level, rebalance_frequency, threshold_tolerance, tax_optimized, target_allocation) VALUES
    ('conservative-income',  'Conservative Income',   'conservative', 'quarterly', 0.05, 1, '{"bonds":0.50,"large_cap":0.25,"dividend":0.15,"cash":0.10}'),
    ('balanced-growth',      'Balanced Growth',       'moderate',     'quarterly', 0.05, 0, '{"large_cap":0.40,"international":0.20,"bonds":0.30,"real_estate":0.10}'),
    ('aggressive-growth',    'Aggressive Growth',     'aggressive',   'monthly',   0.10, 0, '{"large_cap":0.45,"small_cap":0.20,"international":0.25,"emerging":0.10}'),
    ('tax-efficient-index',  'Tax-Efficient Index',   'moderate',     'annually',  0.05, 1, '{"total_market":0.60,"international":0.25,"municipal_bonds":0.15}'),
    ('dividend-focus',       'Dividend Focus',        'moderate',     'quarterly', 0.07, 1, '{"dividend":0.55,"bonds":0.25,"real_estate":0.20}');

-- Seed: jurisdiction tax-rate table. "US" is the documented default
-- fallback (federal rates only, no state tax).
INSERT OR IGNORE INTO tax_jurisdictions VALUES
    ('US', 0.24, 0.24, 0.15, 0.15, 0.000, 0.000, 0.000, 0),
    ('CA', 0.24, 0.24, 0.15, 0.15, 0.093, 0.093, 0.093, 0),
    ('NY', 0.24, 0.24, 0.15, 0.15, 0.0685, 0.0685, 0.0685, 0),
    ('TX', 0.24, 0.24, 0.15, 0.15, 0.000, 0.000, 0.000, 0),
    ('FL', 0.24, 0.24, 0.15, 0.15, 0.000, 0.000, 0.000, 0),
    ('WA', 0.24, 0.24, 0.15, 0.15, 0.000, 0.070, 0.000, 0),
    ('PR', 0.24, 0.24, 0.15, 0.15, 0.000, 0.000, 0.000, 1);

-- Seed: wash-sale substitution pairs, same category but not substantially
-- identical funds.
INSERT OR IGNORE INTO substitutions VALUES
    ('VTI',  'total_market',    'ITOT'),
    ('ITOT', 'total_market',    'VTI'),
    ('VOO',  'large_cap',       'SPLG'),
    ('SPY',  'large_cap',       'VOO'),
    ('QQQ',  'large_cap',       'ONEQ'),
    ('VXUS', 'international',   'IXUS'),
    ('IXUS', 'international',   'VXUS'),
    ('VWO',  'emerging',        'IEMG'),
    ('BND',  'bonds',           'AGG'),
    ('AGG',  'bonds',           'BND'),
    ('MUB',  'municipal_bonds', 'TFI'),
    ('VIG',  'dividend',        'SCHD'),
    ('SCHD', 'dividend',        'VIG'),
    ('VNQ',  'real_estate',     'SCHH'),
    ('VB',   'small_cap',       'IJR');
`

// cacheSchema holds ephemeral analysis results keyed by portfolio with
// expiration timestamps for cache-first behavior.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS analysis_snapshots (
    cache_key   TEXT PRIMARY KEY,
    data         BLOB NOT NULL,
    expires_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_snapshots_expires ON analysis_snapshots (expires_at);
`
