package recorder

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL lets the API read history while the monitor writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db, logger: logger.With(zap.String("component", "recorder")), now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS indicator_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			stock_code    TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			price         REAL,
			macd_signal   TEXT,
			kdj_signal    TEXT,
			rsi_value     REAL,
			rsi_signal    TEXT,
			ma_signal     TEXT,
			volume_signal TEXT,
			boll_signal   TEXT,
			buy_signals   INTEGER DEFAULT 0,
			sell_signals  INTEGER DEFAULT 0,
			final_signal  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_code_ts ON indicator_history(stock_code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_alerts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			stock_code   TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			signal_type  TEXT,
			signal_count INTEGER,
			details      TEXT,
			price        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_code_ts ON signal_alerts(stock_code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS stocks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			code       TEXT NOT NULL UNIQUE,
			name       TEXT,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

// nullable stores an undefined reading as NULL.
func nullable(v model.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.V, Valid: v.OK}
}

func (r *SQLiteRecorder) RecordEvaluation(ctx context.Context, res *model.AggregateResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap model.Snapshot
	if res.Indicators != nil {
		snap = *res.Indicators
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO indicator_history
		(stock_code, timestamp, price, macd_signal, kdj_signal, rsi_value, rsi_signal,
		 ma_signal, volume_signal, boll_signal, buy_signals, sell_signals, final_signal)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.Symbol, res.Timestamp.Unix(), res.Price,
		string(snap.MACD.Signal), string(snap.KDJ.Signal), nullable(snap.RSI.Value), string(snap.RSI.Signal),
		string(snap.MA.Signal), string(snap.Volume.Signal), string(snap.Boll.Signal),
		res.BuySignals, res.SellSignals, string(res.FinalCall),
	)
	return errors.Wrap(err, "insert indicator_history")
}

func (r *SQLiteRecorder) RecordAlert(ctx context.Context, alert *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `INSERT INTO signal_alerts
		(stock_code, timestamp, signal_type, signal_count, details, price)
		VALUES (?,?,?,?,?,?)`,
		alert.Symbol, alert.Timestamp.Unix(), string(alert.Call), alert.SignalCount, alert.Details, alert.Price,
	)
	if err != nil {
		return errors.Wrap(err, "insert signal_alerts")
	}
	if id, err := res.LastInsertId(); err == nil {
		alert.ID = id
	}
	return nil
}

func (r *SQLiteRecorder) RecentAlerts(ctx context.Context, symbol string, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, stock_code, timestamp, signal_type, signal_count, details, price
		FROM signal_alerts WHERE stock_code = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query signal_alerts")
	}
	defer rows.Close()

	alerts := []model.Alert{}
	for rows.Next() {
		var (
			a    model.Alert
			ts   int64
			call string
		)
		if err := rows.Scan(&a.ID, &a.Symbol, &ts, &call, &a.SignalCount, &a.Details, &a.Price); err != nil {
			return nil, errors.Wrap(err, "scan signal_alerts")
		}
		a.Call = model.Call(call)
		a.Timestamp = time.Unix(ts, 0)
		alerts = append(alerts, a)
	}
	return alerts, errors.Wrap(rows.Err(), "iterate signal_alerts")
}

func (r *SQLiteRecorder) AddStock(ctx context.Context, code, name string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &model.Stock{Code: code, Name: name, CreatedAt: time.Unix(r.now().Unix(), 0)}
	_, err := r.db.ExecContext(ctx, `INSERT INTO stocks (code, name, created_at) VALUES (?,?,?)`,
		s.Code, s.Name, s.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrStockExists
		}
		return nil, errors.Wrap(err, "insert stocks")
	}
	return s, nil
}

func (r *SQLiteRecorder) ListStocks(ctx context.Context) ([]model.Stock, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, created_at FROM stocks ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query stocks")
	}
	defer rows.Close()

	stocks := []model.Stock{}
	for rows.Next() {
		var (
			s  model.Stock
			ts int64
		)
		if err := rows.Scan(&s.Code, &s.Name, &ts); err != nil {
			return nil, errors.Wrap(err, "scan stocks")
		}
		s.CreatedAt = time.Unix(ts, 0)
		stocks = append(stocks, s)
	}
	return stocks, errors.Wrap(rows.Err(), "iterate stocks")
}

func (r *SQLiteRecorder) DeleteStock(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM stocks WHERE code = ?`, code)
	if err != nil {
		return errors.Wrap(err, "delete stocks")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStockNotFound
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
