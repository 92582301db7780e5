package storage

// schema bootstraps every table this repository persists to, applied once
// as a single `CREATE TABLE IF NOT EXISTS` block at startup.
const schema = `
CREATE TABLE IF NOT EXISTS sports (
    external_id TEXT PRIMARY KEY,
    name        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS competitions (
    external_id TEXT PRIMARY KEY,
    sport_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    country     TEXT,
    enabled     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS events (
    external_id     TEXT PRIMARY KEY,
    competition_id  TEXT NOT NULL,
    scheduled_start DATETIME NOT NULL,
    status          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_status_start ON events(status, scheduled_start);

CREATE TABLE IF NOT EXISTS markets (
    external_id   TEXT PRIMARY KEY,
    event_id      TEXT NOT NULL,
    name          TEXT NOT NULL,
    market_type   TEXT NOT NULL,
    total_matched REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    in_play       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_markets_status ON markets(status, in_play);

CREATE TABLE IF NOT EXISTS runners (
    market_id   TEXT NOT NULL,
    external_id TEXT NOT NULL,
    name        TEXT NOT NULL,
    status      TEXT NOT NULL,
    PRIMARY KEY (market_id, external_id)
);

CREATE TABLE IF NOT EXISTS market_snapshots (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id       TEXT NOT NULL,
    captured_at     DATETIME NOT NULL,
    total_matched   REAL NOT NULL DEFAULT 0,
    total_available REAL NOT NULL DEFAULT 0,
    overround       REAL NOT NULL DEFAULT 0,
    spread_ticks    REAL NOT NULL DEFAULT 0,
    best_depth      REAL NOT NULL DEFAULT 0,
    depth_5_ticks   REAL NOT NULL DEFAULT 0,
    ladder_json     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_market_time ON market_snapshots(market_id, captured_at);

CREATE TABLE IF NOT EXISTS market_profiles_daily (
    market_id             TEXT NOT NULL,
    date                  DATE NOT NULL,
    bucket                TEXT NOT NULL,
    mean_spread_ticks     REAL NOT NULL DEFAULT 0,
    stddev_spread_ticks   REAL NOT NULL DEFAULT 0,
    mean_best_depth       REAL NOT NULL DEFAULT 0,
    mean_depth_5_ticks    REAL NOT NULL DEFAULT 0,
    total_matched_volume  REAL NOT NULL DEFAULT 0,
    update_rate_per_min   REAL NOT NULL DEFAULT 0,
    price_volatility      REAL NOT NULL DEFAULT 0,
    mean_mid_price        REAL NOT NULL DEFAULT 0,
    snapshot_count        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (market_id, date, bucket)
);

CREATE TABLE IF NOT EXISTS config_versions (
    id         TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    weights_json TEXT NOT NULL,
    norm_json    TEXT NOT NULL,
    guards_json  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exploitability_scores (
    id                TEXT PRIMARY KEY,
    market_id         TEXT NOT NULL,
    scored_at         DATETIME NOT NULL,
    bucket            TEXT NOT NULL,
    odds_band         TEXT NOT NULL,
    total_score       REAL NOT NULL,
    spread_score      REAL NOT NULL,
    volatility_score  REAL NOT NULL,
    update_score      REAL NOT NULL,
    depth_score       REAL NOT NULL,
    volume_penalty    REAL NOT NULL,
    guards_failed_json TEXT NOT NULL,
    config_version    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_market_time ON exploitability_scores(market_id, scored_at DESC);

CREATE TABLE IF NOT EXISTS market_closing_data (
    market_id              TEXT PRIMARY KEY,
    snapshot_captured_at   DATETIME NOT NULL,
    score_id               TEXT NOT NULL,
    minutes_to_start       REAL NOT NULL,
    winner_runner_id       TEXT,
    settlement_void        INTEGER,
    settlement_settled_at  DATETIME,
    settled_at             DATETIME
);

CREATE TABLE IF NOT EXISTS event_results (
    event_id    TEXT PRIMARY KEY,
    home_score  INTEGER,
    away_score  INTEGER,
    total_goals INTEGER,
    btts        INTEGER,
    extended_json TEXT,
    source      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS competition_stats (
    competition_id   TEXT NOT NULL,
    date             DATE NOT NULL,
    count            INTEGER NOT NULL DEFAULT 0,
    mean             REAL NOT NULL DEFAULT 0,
    max              REAL NOT NULL DEFAULT 0,
    min              REAL NOT NULL DEFAULT 0,
    stddev           REAL NOT NULL DEFAULT 0,
    count_above_40   INTEGER NOT NULL DEFAULT 0,
    count_above_55   INTEGER NOT NULL DEFAULT 0,
    count_above_70   INTEGER NOT NULL DEFAULT 0,
    rolling_mean_30d REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (competition_id, date)
);

CREATE TABLE IF NOT EXISTS trading_hypotheses (
    name             TEXT PRIMARY KEY,
    display_name     TEXT NOT NULL,
    description       TEXT,
    enabled           INTEGER NOT NULL DEFAULT 1,
    criteria_json     TEXT NOT NULL,
    selection_logic   TEXT NOT NULL DEFAULT '',
    side              TEXT NOT NULL,
    decisions         INTEGER NOT NULL DEFAULT 0,
    wins              INTEGER NOT NULL DEFAULT 0,
    losses            INTEGER NOT NULL DEFAULT 0,
    cumulative_net    REAL NOT NULL DEFAULT 0,
    mean_clv          REAL NOT NULL DEFAULT 0,
    last_decision_at  DATETIME
);

CREATE TABLE IF NOT EXISTS shadow_decisions (
    id                TEXT PRIMARY KEY,
    market_id         TEXT NOT NULL,
    runner_id         TEXT NOT NULL,
    side              TEXT NOT NULL,
    score_id          TEXT NOT NULL,
    hypothesis_name   TEXT NOT NULL,
    decided_at        DATETIME NOT NULL,
    minutes_to_start  REAL NOT NULL,
    entry_back        REAL NOT NULL,
    entry_lay         REAL NOT NULL,
    entry_spread      REAL NOT NULL,
    available_to_back REAL NOT NULL,
    available_to_lay  REAL NOT NULL,
    stake             REAL NOT NULL,
    niche             TEXT NOT NULL,
    competition_id    TEXT NOT NULL,
    closing_back      REAL,
    closing_lay       REAL,
    closing_mid       REAL,
    clv_percent       REAL,
    outcome           TEXT NOT NULL DEFAULT 'PENDING',
    settled_at        DATETIME,
    gross_pnl         REAL,
    commission        REAL,
    spread_cost       REAL,
    net_pnl           REAL,
    max_loss          REAL,
    return_on_risk    REAL,
    UNIQUE (market_id, hypothesis_name)
);
CREATE INDEX IF NOT EXISTS idx_shadow_outcome ON shadow_decisions(outcome);

CREATE TABLE IF NOT EXISTS job_runs (
    id                TEXT PRIMARY KEY,
    task_name         TEXT NOT NULL,
    started_at        DATETIME NOT NULL,
    completed_at      DATETIME,
    status            TEXT NOT NULL,
    records_processed INTEGER NOT NULL DEFAULT 0,
    error             TEXT,
    metadata_json     TEXT
);
CREATE INDEX IF NOT EXISTS idx_job_runs_task ON job_runs(task_name, started_at DESC);
`
