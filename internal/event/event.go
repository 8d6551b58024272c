// Package event defines the unit of input consumed by the engine.
//
// An Event is built once by the parser for each accepted line, is never
// modified afterwards, and is applied to the engine exactly once.
package event

// Type classifies a market event.
type Type int

const (
	// TypeUnknown marks a well-formed line whose type token was not recognised.
	// It is the zero value so a blank Event is Unknown.
	TypeUnknown Type = iota
	// TypePriceUpdate carries a new last-traded price for a symbol.
	TypePriceUpdate
	// TypeOrderNew reports a newly accepted order.
	TypeOrderNew
	// TypeOrderFill reports an order fill.
	TypeOrderFill
	// TypeOrderCancel reports an order cancellation.
	TypeOrderCancel
)

// Wire tokens for each known type.
const (
	TokenPriceUpdate = "PRICE_UPDATE"
	TokenOrderNew    = "ORDER_NEW"
	TokenOrderFill   = "ORDER_FILL"
	TokenOrderCancel = "ORDER_CANCEL"
	TokenUnknown     = "UNKNOWN"
)

var typeByToken = map[string]Type{
	TokenPriceUpdate: TypePriceUpdate,
	TokenOrderNew:    TypeOrderNew,
	TokenOrderFill:   TypeOrderFill,
	TokenOrderCancel: TypeOrderCancel,
}

// ParseType maps a wire token to a Type using exact, case-sensitive matching.
// The second result is false for unrecognised tokens, in which case the
// returned Type is TypeUnknown.
func ParseType(token string) (Type, bool) {
	t, ok := typeByToken[token]
	return t, ok
}

// String returns the wire token for t.
func (t Type) String() string {
	switch t {
	case TypePriceUpdate:
		return TokenPriceUpdate
	case TypeOrderNew:
		return TokenOrderNew
	case TypeOrderFill:
		return TokenOrderFill
	case TypeOrderCancel:
		return TokenOrderCancel
	default:
		return TokenUnknown
	}
}

// Side is the order side of an event. It is validated on input but does not
// take part in any derived computation.
type Side byte

const (
	SideNone Side = '-'
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// ParseSide accepts exactly one of "B", "S" or "-".
func ParseSide(s string) (Side, bool) {
	if len(s) != 1 {
		return SideNone, false
	}
	switch side := Side(s[0]); side {
	case SideBuy, SideSell, SideNone:
		return side, true
	default:
		return SideNone, false
	}
}

// String returns the single-character wire form of s.
func (s Side) String() string {
	return string(rune(s))
}

// Event is one ingested record.
type Event struct {
	// Timestamp orders events within a symbol. Zero means absent or invalid.
	Timestamp int64

	// Symbol identifies the instrument. Empty means invalid.
	Symbol string

	Type Type

	// Price is only meaningful for TypePriceUpdate.
	Price float64

	// Qty is parsed and validated but not used by the engine yet.
	Qty int64

	Side Side

	// Line is the 1-based source line, for diagnostics only.
	Line int
}

// Blank returns the record forwarded to the engine in place of a rejected
// line. It has an empty symbol and a zero timestamp, so the engine counts it
// as a parse error and never touches symbol state with it.
func Blank(line int) Event {
	return Event{Side: SideNone, Line: line}
}

// Valid reports whether the event passes the engine's minimal validity check.
func (e Event) Valid() bool {
	return e.Symbol != "" && e.Timestamp != 0
}
