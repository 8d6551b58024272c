package store

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/roach88/marketfeed/internal/state"
)

// SQLite integers are signed 64-bit; counters above MaxInt64 cannot be
// stored and are rejected rather than wrapped.
func counterToSQL(name string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s overflows int64: %d", name, v)
	}
	return int64(v), nil
}

func counterFromSQL(name string, v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s is negative: %d", name, v)
	}
	return uint64(v), nil
}

// priceToSQL maps an unobserved price to NULL.
func priceToSQL(p state.Price) sql.NullFloat64 {
	v, ok := p.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func priceFromSQL(v sql.NullFloat64) state.Price {
	if !v.Valid {
		return state.Price{}
	}
	return state.SomePrice(v.Float64)
}

// counterCodec converts a series of counters, keeping the first error.
type counterCodec struct {
	err error
}

func (c *counterCodec) encode(name string, v uint64) int64 {
	if c.err != nil {
		return 0
	}
	n, err := counterToSQL(name, v)
	c.err = err
	return n
}

func (c *counterCodec) decode(name string, v int64) uint64 {
	if c.err != nil {
		return 0
	}
	n, err := counterFromSQL(name, v)
	c.err = err
	return n
}
