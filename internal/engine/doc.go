// Package engine folds market events into per-symbol state.
//
// The engine is the heart of marketfeed. It receives events one at a time in
// arrival order, applies them to the symbol store, derives price-jump alerts
// and keeps process-wide counters.
//
// ARCHITECTURE:
//
// Single-Threaded Fold:
// Events are applied strictly sequentially by the caller's goroutine. There
// is no queue, no background work and no locking. This ensures:
//   - Out-of-order detection sees every earlier event for the symbol
//   - Price-jump alerts always compare against the true previous price
//   - Identical input produces identical output, byte for byte
//
// Event Processing Flow:
//  1. Every offered event counts towards TotalEvents
//  2. Records with an empty symbol or a zero timestamp become ParseErrors
//  3. Everything else counts as ParsedEvents and gets a symbol state
//  4. A timestamp below the symbol's LastTS is rejected into UnknownEvents
//  5. The event is dispatched on its type; Unknown types also count as
//     UnknownEvents
//
// Note: steps 3-5 mean an out-of-order or Unknown-typed event is counted both
// as parsed and as unknown.
//
// DETERMINISM:
// The store is an unordered map. RenderSummary sorts symbols at render time,
// so summary text never depends on map iteration order.
package engine
