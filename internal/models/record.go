// Package models holds the domain types shared by the record store, the
// query layer and the client surface.
package models

import "time"

// Record is one game session's persisted envelope. ID is the opaque unique
// key under which the body lives in the ledger; EncodedState is the obscured
// payload and is never decoded by the client.
type Record struct {
	ID           string `json:"id" yaml:"id"`
	EncodedState string `json:"encodedState" yaml:"encodedState"`
	CreatedAt    int64  `json:"createdAt" yaml:"createdAt"`
	Owner        string `json:"owner" yaml:"owner"`
	Category     string `json:"category" yaml:"category"`
	Revealed     bool   `json:"revealed" yaml:"revealed"`
}

// CreatedTime returns CreatedAt as a time.Time.
func (r Record) CreatedTime() time.Time {
	return time.Unix(r.CreatedAt, 0)
}

// Commit acknowledges a ledger write.
type Commit struct {
	TxID string
	Key  string
}
