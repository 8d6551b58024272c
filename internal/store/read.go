package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/state"
)

const runInfoColumns = `
	seq, id, input, lines, digest, emit_summary, emit_alerts, price_jump_bps,
	total_events, parsed_events, parse_errors, unknown_events`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ListRuns returns every archived run header.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	return s.queryRunInfos(ctx, `
		SELECT`+runInfoColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// RunsWithDigest returns headers of runs whose outcome digest equals digest,
// in the same order as ListRuns.
func (s *Store) RunsWithDigest(ctx context.Context, digest string) ([]RunInfo, error) {
	return s.queryRunInfos(ctx, `
		SELECT`+runInfoColumns+`
		FROM runs
		WHERE digest = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, digest)
}

// ReadRun retrieves a full run by ID.
// Returns an error wrapping ErrNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+runInfoColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	info, err := scanRunInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	symbols, err := s.readSymbols(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	alerts, err := s.readAlerts(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	return Run{RunInfo: info, Symbols: symbols, Alerts: alerts}, nil
}

func (s *Store) queryRunInfos(ctx context.Context, query string, args ...any) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return infos, nil
}

func scanRunInfo(sc scanner) (RunInfo, error) {
	var info RunInfo
	var total, parsed, parseErrs, unknown int64

	err := sc.Scan(
		&info.Seq,
		&info.ID,
		&info.Input,
		&info.Lines,
		&info.Digest,
		&info.Config.EmitSummary,
		&info.Config.EmitAlerts,
		&info.Config.PriceJumpBps,
		&total,
		&parsed,
		&parseErrs,
		&unknown,
	)
	if err != nil {
		return RunInfo{}, err
	}

	var cc counterCodec
	info.Stats = engine.Stats{
		TotalEvents:   cc.decode("total_events", total),
		ParsedEvents:  cc.decode("parsed_events", parsed),
		ParseErrors:   cc.decode("parse_errors", parseErrs),
		UnknownEvents: cc.decode("unknown_events", unknown),
	}
	if cc.err != nil {
		return RunInfo{}, fmt.Errorf("scan run %s: %w", info.ID, cc.err)
	}

	return info, nil
}

// readSymbols returns the symbol snapshots of a run in ascending symbol order.
func (s *Store) readSymbols(ctx context.Context, runID string) ([]state.SymbolState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, last_ts, last_price, price_updates, order_new, order_fill, order_cancel
		FROM run_symbols
		WHERE run_id = ?
		ORDER BY symbol COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []state.SymbolState{}
	for rows.Next() {
		var st state.SymbolState
		var price sql.NullFloat64
		var updates, newOrders, fills, cancels int64
		if err := rows.Scan(&st.Symbol, &st.LastTS, &price, &updates, &newOrders, &fills, &cancels); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}

		var cc counterCodec
		st.LastPrice = priceFromSQL(price)
		st.PriceUpdates = cc.decode("price_updates", updates)
		st.OrderNew = cc.decode("order_new", newOrders)
		st.OrderFill = cc.decode("order_fill", fills)
		st.OrderCancel = cc.decode("order_cancel", cancels)
		if cc.err != nil {
			return nil, fmt.Errorf("scan symbol %s: %w", st.Symbol, cc.err)
		}

		symbols = append(symbols, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbols: %w", err)
	}

	return symbols, nil
}

// readAlerts returns the alerts of a run in emission order.
func (s *Store) readAlerts(ctx context.Context, runID string) ([]engine.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, symbol, message
		FROM run_alerts
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []engine.Alert{}
	for rows.Next() {
		var a engine.Alert
		if err := rows.Scan(&a.Timestamp, &a.Symbol, &a.Message); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}
