// Package cli provides the fhegame command-line client.
//
// It wires configuration, the local journal, the wallet-backed identity
// provider and a ledger connection (a remote node over gRPC or an
// in-process sqlite ledger) into a record store, and exposes it as cobra
// commands plus an interactive REPL.
//
// Key features:
//   - list / stats with search, reveal-state filter and text, json or yaml output
//   - create / reveal signed writes with pending and result status lines
//   - repair of orphaned records recorded in the journal
//   - accounts new / list / use / disconnect
//
// Every successful write is followed by a full reload of the record list.
package cli
