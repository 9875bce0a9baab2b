// Package codec converts records and the record index to and from the bytes
// stored in the ledger.
//
// # Wire formats
//
// A record body is UTF-8 JSON:
//
//	{"state":"FHE-...","timestamp":1700000000,"player":"0xab..","gameType":"Poker","revealed":false}
//
// The record id is not part of the body; it is the suffix of the ledger key
// and is supplied to DecodeRecord by the caller. The index is a UTF-8 JSON
// array of id strings, in append order.
//
// Decoding is strict: missing required fields, wrong JSON types and non-JSON
// bytes produce a *common.DecodeError. The one documented default is
// "revealed", which reads as false when absent.
//
// # Obscured state
//
// Obscurer turns the plaintext game seed into the opaque encodedState. The
// transformation is one-way for this client: revealing a record flips its
// flag and never recovers the plaintext.
package codec
