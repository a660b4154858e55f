// Package persistence provides SQLite-based storage for turn results,
// catastrophe history, and simulation metadata. The core pipeline never
// touches it mid-turn: the runner persists only finalized results.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/veldtworks/underwriters/internal/domain"
)

// DB wraps a SQLite connection for simulation output storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turn_results (
		company_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		premium_income REAL NOT NULL,
		claims REAL NOT NULL,
		expenses REAL NOT NULL,
		underwriting_result REAL NOT NULL,
		investment_income REAL NOT NULL,
		ending_capital REAL NOT NULL,
		combined_ratio REAL NOT NULL,
		loss_ratio REAL NOT NULL,
		crisis_state TEXT NOT NULL,
		liquidation_shortfall REAL NOT NULL,
		segments_json TEXT NOT NULL,
		PRIMARY KEY (company_id, turn)
	);

	CREATE TABLE IF NOT EXISTS catastrophes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		start_turn INTEGER NOT NULL,
		duration_turns INTEGER NOT NULL,
		severity REAL NOT NULL,
		epicenters_json TEXT NOT NULL,
		affected_json TEXT NOT NULL,
		lines_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		kind TEXT NOT NULL,
		company TEXT NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_turn ON turn_results(turn);
	CREATE INDEX IF NOT EXISTS idx_catastrophes_turn ON catastrophes(start_turn);
	CREATE INDEX IF NOT EXISTS idx_events_turn ON sim_events(turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveTurnResults writes one turn's finalized results.
func (db *DB) SaveTurnResults(results []domain.TurnResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO turn_results
		(company_id, turn, premium_income, claims, expenses, underwriting_result,
		 investment_income, ending_capital, combined_ratio, loss_ratio,
		 crisis_state, liquidation_shortfall, segments_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		segmentsJSON, err := json.Marshal(r.Segments)
		if err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		_, err = stmt.Exec(
			r.Company.String(), r.Turn, r.PremiumIncome, r.Claims, r.Expenses,
			r.UnderwritingResult, r.InvestmentIncome, r.EndingCapital,
			r.CombinedRatio, r.LossRatio, string(r.CrisisState),
			r.LiquidationShortfall, string(segmentsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert result %s turn %d: %w", r.Company, r.Turn, err)
		}
	}
	return tx.Commit()
}

// SaveCatastrophes appends generated catastrophe events.
func (db *DB) SaveCatastrophes(events []*domain.CatastropheEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		epicentersJSON, _ := json.Marshal(ev.Epicenters)
		affectedJSON, _ := json.Marshal(ev.AffectedAll)
		linesJSON, _ := json.Marshal(ev.AffectedLines)
		_, err := tx.Exec(`INSERT INTO catastrophes
			(type, start_turn, duration_turns, severity, epicenters_json, affected_json, lines_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(ev.Type), ev.StartTurn, ev.DurationTurns, ev.Severity,
			string(epicentersJSON), string(affectedJSON), string(linesJSON),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// resultRow mirrors the turn_results table for sqlx scanning.
type resultRow struct {
	CompanyID            string  `db:"company_id"`
	Turn                 int     `db:"turn"`
	PremiumIncome        float64 `db:"premium_income"`
	Claims               float64 `db:"claims"`
	Expenses             float64 `db:"expenses"`
	UnderwritingResult   float64 `db:"underwriting_result"`
	InvestmentIncome     float64 `db:"investment_income"`
	EndingCapital        float64 `db:"ending_capital"`
	CombinedRatio        float64 `db:"combined_ratio"`
	LossRatio            float64 `db:"loss_ratio"`
	CrisisState          string  `db:"crisis_state"`
	LiquidationShortfall float64 `db:"liquidation_shortfall"`
	SegmentsJSON         string  `db:"segments_json"`
}

// ResultsForTurn loads every company's result for one turn.
func (db *DB) ResultsForTurn(turn int) ([]domain.TurnResult, error) {
	var rows []resultRow
	err := db.conn.Select(&rows,
		"SELECT * FROM turn_results WHERE turn = ? ORDER BY company_id", turn)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// CompanyHistory loads a company's most recent results, newest first.
func (db *DB) CompanyHistory(company domain.CompanyID, limit int) ([]domain.TurnResult, error) {
	var rows []resultRow
	err := db.conn.Select(&rows,
		"SELECT * FROM turn_results WHERE company_id = ? ORDER BY turn DESC LIMIT ?",
		company.String(), limit)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func decodeRows(rows []resultRow) ([]domain.TurnResult, error) {
	results := make([]domain.TurnResult, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("parse company id %q: %w", row.CompanyID, err)
		}
		r := domain.TurnResult{
			Company:              domain.CompanyID(id),
			Turn:                 row.Turn,
			PremiumIncome:        row.PremiumIncome,
			Claims:               row.Claims,
			Expenses:             row.Expenses,
			UnderwritingResult:   row.UnderwritingResult,
			InvestmentIncome:     row.InvestmentIncome,
			EndingCapital:        row.EndingCapital,
			CombinedRatio:        row.CombinedRatio,
			LossRatio:            row.LossRatio,
			CrisisState:          domain.CrisisState(row.CrisisState),
			LiquidationShortfall: row.LiquidationShortfall,
		}
		if row.SegmentsJSON != "" {
			if err := json.Unmarshal([]byte(row.SegmentsJSON), &r.Segments); err != nil {
				return nil, fmt.Errorf("decode segments: %w", err)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// SimEvent is a notable simulation occurrence kept outside the log stream so
// it can be queried after a run.
type SimEvent struct {
	Turn    int    `db:"turn"`
	Kind    string `db:"kind"`
	Company string `db:"company"`
	Detail  string `db:"detail"`
}

// SaveEvents appends notable simulation events.
func (db *DB) SaveEvents(events []SimEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		_, err := tx.Exec(
			"INSERT INTO sim_events (turn, kind, company, detail) VALUES (?, ?, ?, ?)",
			ev.Turn, ev.Kind, ev.Company, ev.Detail,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// EventsForTurn loads the events recorded for one turn.
func (db *DB) EventsForTurn(turn int) ([]SimEvent, error) {
	var events []SimEvent
	err := db.conn.Select(&events,
		"SELECT turn, kind, company, detail FROM sim_events WHERE turn = ? ORDER BY id", turn)
	return events, err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// SaveTurn persists one turn's full output in order.
func (db *DB) SaveTurn(turn int, results []domain.TurnResult, cats []*domain.CatastropheEvent) error {
	if err := db.SaveTurnResults(results); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	if err := db.SaveCatastrophes(cats); err != nil {
		return fmt.Errorf("save catastrophes: %w", err)
	}

	var events []SimEvent
	for _, r := range results {
		if r.CrisisState == domain.CrisisNormal {
			continue
		}
		events = append(events, SimEvent{
			Turn:    turn,
			Kind:    "crisis",
			Company: r.Company.String(),
			Detail: fmt.Sprintf("state=%s shortfall=%.0f capital=%.0f",
				r.CrisisState, r.LiquidationShortfall, r.EndingCapital),
		})
	}
	for _, ev := range cats {
		events = append(events, SimEvent{
			Turn: turn,
			Kind: "catastrophe",
			Detail: fmt.Sprintf("type=%s severity=%.2f affected=%d",
				ev.Type, ev.Severity, len(ev.AffectedAll)),
		})
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	if err := db.SaveMeta("last_turn", fmt.Sprintf("%d", turn)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Debug("turn persisted", "turn", turn, "results", len(results))
	return nil
}
