package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CryptoAdvisor/internal/model"
)

// pruneEvery is how many inserts pass between retention sweeps.
const pruneEvery = 500

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger

	keep    int // signal rows kept per symbol, 0 keeps everything
	inserts int
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations. Signal rows beyond the newest keepPerSymbol per symbol are
// pruned on open and periodically while recording.
func NewSQLiteRecorder(dbPath string, keepPerSymbol int) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, keep: keepPerSymbol, logger: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := r.Prune(); err != nil {
		db.Close()
		return nil, err
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			action           TEXT NOT NULL,
			score            INTEGER,
			confidence       TEXT,
			is_primary       INTEGER,
			reasons          TEXT,
			suggested_amount REAL,
			suggested_pct    REAL,
			price            REAL,
			rsi              REAL,
			sma20            REAL,
			sma50            REAL,
			bb_upper         REAL,
			bb_lower         REAL,
			change_24h       REAL,
			rsi_score        REAL,
			ma_score         REAL,
			bb_score         REAL,
			momentum_score   REAL,
			composite        REAL,
			buy_threshold    REAL,
			sell_threshold   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol, id)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			type       TEXT NOT NULL,
			level      REAL,
			title      TEXT,
			delivered  TEXT,
			failed     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_ts ON notifications(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(snap *SignalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := snap.Signal
	ind := snap.Indicators
	if ind == nil {
		ind = &model.Indicators{}
	}
	reasons, err := json.Marshal(sig.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}

	// Factor order is fixed by the scorer: RSI, MA, Bollinger, momentum.
	factors := make([]float64, 4)
	for i := 0; i < len(snap.Factors) && i < 4; i++ {
		factors[i] = snap.Factors[i].Weighted
	}

	ts := sig.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = r.db.Exec(`INSERT INTO signals
		(timestamp, symbol, action, score, confidence, is_primary, reasons,
		 suggested_amount, suggested_pct, price,
		 rsi, sma20, sma50, bb_upper, bb_lower, change_24h,
		 rsi_score, ma_score, bb_score, momentum_score,
		 composite, buy_threshold, sell_threshold)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), sig.Symbol, string(sig.Action), sig.Score, string(sig.Confidence), sig.Primary, string(reasons),
		sig.SuggestedAmount, sig.SuggestedPercentage, sig.Price,
		ind.RSI, ind.SMA20, ind.SMA50, ind.BollingerUpper, ind.BollingerLower, ind.PriceChange24h,
		factors[0], factors[1], factors[2], factors[3],
		snap.Composite, snap.Thresholds.Buy, snap.Thresholds.Sell,
	)
	if err != nil {
		return err
	}
	r.inserts++
	if r.inserts%pruneEvery == 0 {
		if _, err := r.prune(); err != nil {
			r.logger.Warn().Err(err).Msg("prune signals")
		}
	}
	return nil
}

// Prune deletes signal rows older than the newest keepPerSymbol of each
// symbol and returns how many were removed.
func (r *SQLiteRecorder) Prune() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prune()
}

func (r *SQLiteRecorder) prune() (int64, error) {
	if r.keep <= 0 {
		return 0, nil
	}
	res, err := r.db.Exec(`DELETE FROM signals WHERE id IN (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY symbol ORDER BY id DESC) AS rn
			FROM signals
		) WHERE rn > ?)`, r.keep)
	if err != nil {
		return 0, fmt.Errorf("prune signals: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info().Int64("rows", n).Int("keep_per_symbol", r.keep).Msg("pruned signal history")
	}
	return n, nil
}

func (r *SQLiteRecorder) RecordNotification(evt *NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO notifications
		(timestamp, symbol, type, level, title, delivered, failed)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().UnixMilli(), evt.Symbol, string(evt.Type), evt.Level, evt.Title,
		strings.Join(evt.Delivered, ","), strings.Join(evt.Failed, ","),
	)
	return err
}

func (r *SQLiteRecorder) RecentSignals(limit int) ([]model.TradeSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, symbol, action, score, confidence, is_primary, reasons,
		suggested_amount, suggested_pct, price, rsi
		FROM signals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []model.TradeSignal
	for rows.Next() {
		var (
			sig        model.TradeSignal
			ts         int64
			action     string
			confidence string
			reasons    string
			amount     sql.NullFloat64
			pct        sql.NullFloat64
		)
		if err := rows.Scan(&ts, &sig.Symbol, &action, &sig.Score, &confidence, &sig.Primary, &reasons,
			&amount, &pct, &sig.Price, &sig.RSI); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Timestamp = time.UnixMilli(ts)
		sig.Action = model.Action(action)
		sig.Confidence = model.Confidence(confidence)
		if err := json.Unmarshal([]byte(reasons), &sig.Reasons); err != nil {
			r.logger.Warn().Err(err).Str("symbol", sig.Symbol).Msg("undecodable reasons")
		}
		if amount.Valid {
			sig.SuggestedAmount = &amount.Float64
		}
		if pct.Valid {
			sig.SuggestedPercentage = &pct.Float64
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (r *SQLiteRecorder) RecentScores(symbol string, limit int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT composite FROM signals
		WHERE symbol = ? AND is_primary = 1 ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
	return scores, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
