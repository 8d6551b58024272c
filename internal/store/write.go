package store

import (
	"context"
	"fmt"
)

// WriteRun archives run atomically: the header, every symbol snapshot and
// every alert are inserted in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency. If a run with the same ID
// already exists nothing is written and inserted is false. On success
// run.Seq is not modified; the assigned seq is returned.
func (s *Store) WriteRun(ctx context.Context, run Run) (seq int64, inserted bool, err error) {
	if run.ID == "" {
		return 0, false, fmt.Errorf("write run: empty id")
	}

	var cc counterCodec
	total := cc.encode("total_events", run.Stats.TotalEvents)
	parsed := cc.encode("parsed_events", run.Stats.ParsedEvents)
	parseErrs := cc.encode("parse_errors", run.Stats.ParseErrors)
	unknown := cc.encode("unknown_events", run.Stats.UnknownEvents)
	if cc.err != nil {
		return 0, false, fmt.Errorf("write run: %w", cc.err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, input, lines, digest, emit_summary, emit_alerts, price_jump_bps,
		 total_events, parsed_events, parse_errors, unknown_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Input,
		run.Lines,
		run.Digest,
		run.Config.EmitSummary,
		run.Config.EmitAlerts,
		run.Config.PriceJumpBps,
		total,
		parsed,
		parseErrs,
		unknown,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	seq, err = result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("write run: last insert id: %w", err)
	}

	for _, st := range run.Symbols {
		updates := cc.encode("price_updates", st.PriceUpdates)
		newOrders := cc.encode("order_new", st.OrderNew)
		fills := cc.encode("order_fill", st.OrderFill)
		cancels := cc.encode("order_cancel", st.OrderCancel)
		if cc.err != nil {
			return 0, false, fmt.Errorf("write run: symbol %s: %w", st.Symbol, cc.err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_symbols
			(run_id, symbol, last_ts, last_price, price_updates, order_new, order_fill, order_cancel)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			st.Symbol,
			st.LastTS,
			priceToSQL(st.LastPrice),
			updates,
			newOrders,
			fills,
			cancels,
		)
		if err != nil {
			return 0, false, fmt.Errorf("write run: symbol %s: %w", st.Symbol, err)
		}
	}

	for i, a := range run.Alerts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_alerts (run_id, idx, ts, symbol, message)
			VALUES (?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			a.Timestamp,
			a.Symbol,
			a.Message,
		)
		if err != nil {
			return 0, false, fmt.Errorf("write run: alert %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write run: commit: %w", err)
	}

	return seq, true, nil
}
