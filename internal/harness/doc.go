// Package harness runs YAML scenarios through the real parser, ingest and
// engine path and checks the outcome.
//
// # Scenario Format
//
//	name: alert_round_trip
//	description: "Two updates 20 bps apart alert at a 10 bps threshold"
//	config:
//	  summary: true
//	  alerts: true
//	  price_jump_bps: 10
//	archive: true
//	input: |
//	  1,AAPL,PRICE_UPDATE,100.0,10,B
//	  2,AAPL,PRICE_UPDATE,100.2,5,S
//	expect:
//	  stats: { total_events: 2, parsed_events: 2 }
//	  alerts:
//	    - { timestamp: 2, symbol: AAPL, message: "Price jump: AAPL 20.0000 bps (100.0000 -> 100.2000)" }
//	  symbols:
//	    AAPL: { last_ts: 2, last_price: "100.2", price_updates: 2 }
//	  absent: [MSFT]
//	  diagnostics: []
//
// # Expectations
//
//   - stats: subset match on the four counters
//   - alerts: exact list, in emission order; message may be omitted
//   - symbols: subset match per symbol; last_price compares as a decimal
//   - absent: symbols that must have no state
//   - diagnostics: exact list of parser diagnostics, in input order
//
// Omitted sections are not checked. An empty list ("alerts: []") asserts
// that there are none.
//
// # Archive
//
// With archive: true the run is written to an in-memory run archive under a
// fixed run ID, read back, and its digest compared with the live report.
//
// # Golden Files
//
// RunWithGolden compares the console output (alerts block and summary, as
// gated by config) against testdata/golden/<name>.golden.
package harness
