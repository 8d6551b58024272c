// Package state holds per-symbol running aggregates.
//
// The Store is a plain map keyed by symbol. It makes no ordering promise;
// anything that needs a stable order sorts at read time.
package state

// Price is an optional last-observed price. The zero value means no price
// has been observed, which is different from a price observed as 0.0.
type Price struct {
	value float64
	ok    bool
}

// SomePrice returns an observed price.
func SomePrice(v float64) Price {
	return Price{value: v, ok: true}
}

// Get returns the price and whether one has been observed.
func (p Price) Get() (float64, bool) {
	return p.value, p.ok
}

// Valid reports whether a price has been observed.
func (p Price) Valid() bool {
	return p.ok
}

// OrZero returns the observed price, or 0 if none was observed.
func (p Price) OrZero() float64 {
	if !p.ok {
		return 0
	}
	return p.value
}

// SymbolState is the running aggregate for one symbol.
type SymbolState struct {
	Symbol string

	// LastTS is the timestamp of the last accepted event; 0 until one is accepted.
	LastTS int64

	LastPrice Price

	PriceUpdates uint64
	OrderNew     uint64
	OrderFill    uint64
	OrderCancel  uint64
}

// Store maps symbols to their state.
type Store struct {
	states map[string]*SymbolState
}

// New creates an empty Store.
func New() *Store {
	return &Store{states: make(map[string]*SymbolState)}
}

// GetOrCreate returns the state for symbol, creating a zero-valued entry on
// first access. Later calls for the same symbol return the same pointer.
func (s *Store) GetOrCreate(symbol string) *SymbolState {
	if st, ok := s.states[symbol]; ok {
		return st
	}
	st := &SymbolState{Symbol: symbol}
	s.states[symbol] = st
	return st
}

// Get returns a copy of the state for symbol.
func (s *Store) Get(symbol string) (SymbolState, bool) {
	st, ok := s.states[symbol]
	if !ok {
		return SymbolState{}, false
	}
	return *st, true
}

// Len returns the number of symbols seen.
func (s *Store) Len() int {
	return len(s.states)
}

// All returns a snapshot of every symbol's state. Mutating the returned map
// does not affect the store.
func (s *Store) All() map[string]SymbolState {
	out := make(map[string]SymbolState, len(s.states))
	for k, v := range s.states {
		out[k] = *v
	}
	return out
}

// Symbols returns the symbol keys in unspecified order.
func (s *Store) Symbols() []string {
	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	return keys
}
