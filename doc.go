// Package stockfolio tracks a personal stock portfolio from its trades.
//
// It is local-first and auditable: the ledger of trades is the single source
// of truth, stored as a human-readable JSONL file, and every other figure is
// recomputed from it on demand.
//
// The core is made of:
//   - Ledger: the ordered collection of buy and sell trades, and the only
//     place where trades are validated.
//   - Aggregate: folds trades and a price map into current positions, using
//     the weighted-average cost method.
//   - Total: reduces positions into portfolio totals.
//   - Project: replays trades into a time series of trade cost, realized
//     profit and cumulative cost, for charting.
//
// Aggregate, Total and Project are pure functions. They never perform I/O,
// never modify their inputs and always return fresh values, so they can be
// called as often as needed. Prices are optional: an unknown price is carried
// as an invalid decimal.NullDecimal through every derived figure, never as
// zero.
//
// This package serves as the foundational logic for the `folio` command-line
// tool and its HTTP server.
package stockfolio
