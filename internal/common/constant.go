// Package common contains shared constants and sentinel errors used across
// the fhegame client, the record store and the ledger node.
package common

// IndexKey is the reserved ledger key holding the ordered list of record ids.
const IndexKey = "game_keys"

// RecordKeyPrefix prefixes every record body key in the ledger.
const RecordKeyPrefix = "game_"

// RecordKey returns the ledger key of the record body with the given id.
func RecordKey(id string) string {
	return RecordKeyPrefix + id
}

// Metadata keys carried on ledger gRPC calls.
const (
	LedgerKeyHeaderName       = "ledger-key"
	LedgerSignatureHeaderName = "ledger-signature"
	LedgerVersionHeaderName   = "ledger-expected-version"
)
