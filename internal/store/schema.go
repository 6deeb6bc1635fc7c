package store

// Schema creates every table this subsystem writes. The players table is
// owned by the identity service; it is included here so a fresh database can
// run the coordinator standalone.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL,
    rating     INTEGER NOT NULL DEFAULT 1000
);

CREATE TABLE IF NOT EXISTS match_records (
    id                  TEXT PRIMARY KEY,
    room_code           TEXT NOT NULL,
    white_id            TEXT NOT NULL,
    white_name          TEXT NOT NULL,
    white_rating_before INTEGER NOT NULL,
    white_rating_after  INTEGER NOT NULL,
    white_rating_change INTEGER NOT NULL,
    black_id            TEXT NOT NULL,
    black_name          TEXT NOT NULL,
    black_rating_before INTEGER NOT NULL,
    black_rating_after  INTEGER NOT NULL,
    black_rating_change INTEGER NOT NULL,
    result              TEXT NOT NULL,
    winner              TEXT NOT NULL,
    end_reason          TEXT NOT NULL,
    pgn                 TEXT NOT NULL DEFAULT '',
    final_fen           TEXT NOT NULL DEFAULT '',
    total_moves         INTEGER NOT NULL DEFAULT 0,
    duration_sec        INTEGER NOT NULL DEFAULT 0,
    started_at          TIMESTAMPTZ NOT NULL,
    ended_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_records_white ON match_records (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_records_black ON match_records (black_id, ended_at DESC);

CREATE TABLE IF NOT EXISTS rating_history (
    id                     BIGSERIAL PRIMARY KEY,
    user_id                TEXT NOT NULL,
    match_id               TEXT NOT NULL,
    rating_before          INTEGER NOT NULL,
    rating_after           INTEGER NOT NULL,
    rating_change          INTEGER NOT NULL,
    reason                 TEXT NOT NULL,
    opponent_id            TEXT NOT NULL,
    opponent_name          TEXT NOT NULL,
    opponent_rating_before INTEGER NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_rating_history_user ON rating_history (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS match_views (
    id              BIGSERIAL PRIMARY KEY,
    user_id         TEXT NOT NULL,
    match_id        TEXT NOT NULL,
    opponent_id     TEXT NOT NULL,
    opponent_name   TEXT NOT NULL,
    opponent_rating INTEGER NOT NULL,
    side            TEXT NOT NULL,
    result          TEXT NOT NULL,
    end_reason      TEXT NOT NULL,
    rating_change   INTEGER NOT NULL,
    rating_after    INTEGER NOT NULL,
    total_moves     INTEGER NOT NULL,
    duration_sec    INTEGER NOT NULL,
    played_at       TIMESTAMPTZ NOT NULL,
    room_code       TEXT NOT NULL,
    pgn             TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_match_views_user ON match_views (user_id, played_at DESC);

CREATE TABLE IF NOT EXISTS player_stats (
    user_id              TEXT PRIMARY KEY,
    total_games          INTEGER NOT NULL DEFAULT 0,
    wins                 INTEGER NOT NULL DEFAULT 0,
    losses               INTEGER NOT NULL DEFAULT 0,
    draws                INTEGER NOT NULL DEFAULT 0,
    white_games          INTEGER NOT NULL DEFAULT 0,
    black_games          INTEGER NOT NULL DEFAULT 0,
    white_wins           INTEGER NOT NULL DEFAULT 0,
    black_wins           INTEGER NOT NULL DEFAULT 0,
    white_losses         INTEGER NOT NULL DEFAULT 0,
    black_losses         INTEGER NOT NULL DEFAULT 0,
    white_draws          INTEGER NOT NULL DEFAULT 0,
    black_draws          INTEGER NOT NULL DEFAULT 0,
    wins_by_checkmate    INTEGER NOT NULL DEFAULT 0,
    wins_by_resign       INTEGER NOT NULL DEFAULT 0,
    wins_by_disconnect   INTEGER NOT NULL DEFAULT 0,
    losses_by_checkmate  INTEGER NOT NULL DEFAULT 0,
    losses_by_resign     INTEGER NOT NULL DEFAULT 0,
    losses_by_disconnect INTEGER NOT NULL DEFAULT 0,
    avg_duration_sec     INTEGER NOT NULL DEFAULT 0,
    avg_moves            INTEGER NOT NULL DEFAULT 0,
    current_win_streak   INTEGER NOT NULL DEFAULT 0,
    longest_win_streak   INTEGER NOT NULL DEFAULT 0,
    current_loss_streak  INTEGER NOT NULL DEFAULT 0,
    longest_loss_streak  INTEGER NOT NULL DEFAULT 0,
    highest_rating       INTEGER NOT NULL DEFAULT 1000,
    lowest_rating        INTEGER NOT NULL DEFAULT 1000,
    last_game_at         TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS side_win_rates (
    user_id                TEXT PRIMARY KEY,
    white_games            INTEGER NOT NULL DEFAULT 0,
    white_wins             INTEGER NOT NULL DEFAULT 0,
    white_losses           INTEGER NOT NULL DEFAULT 0,
    white_draws            INTEGER NOT NULL DEFAULT 0,
    white_win_rate         INTEGER NOT NULL DEFAULT 0,
    white_avg_rating_change INTEGER NOT NULL DEFAULT 0,
    black_games            INTEGER NOT NULL DEFAULT 0,
    black_wins             INTEGER NOT NULL DEFAULT 0,
    black_losses           INTEGER NOT NULL DEFAULT 0,
    black_draws            INTEGER NOT NULL DEFAULT 0,
    black_win_rate         INTEGER NOT NULL DEFAULT 0,
    black_avg_rating_change INTEGER NOT NULL DEFAULT 0,
    preferred_side         TEXT NOT NULL DEFAULT 'neutral',
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
