package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/models"
)

type recordWire struct {
	State     *string `json:"state"`
	Timestamp *int64  `json:"timestamp"`
	Player    *string `json:"player"`
	GameType  *string `json:"gameType"`
	Revealed  *bool   `json:"revealed,omitempty"`
}

// EncodeRecord serialises r into its ledger body. r.ID is not encoded.
func EncodeRecord(r models.Record) ([]byte, error) {
	revealed := r.Revealed
	w := recordWire{
		State:     &r.EncodedState,
		Timestamp: &r.CreatedAt,
		Player:    &r.Owner,
		GameType:  &r.Category,
		Revealed:  &revealed,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return b, nil
}

// DecodeRecord parses a ledger body stored for id.
func DecodeRecord(id string, b []byte) (models.Record, error) {
	key := common.RecordKey(id)
	if len(bytes.TrimSpace(b)) == 0 {
		return models.Record{}, &common.DecodeError{Key: key, Err: errors.New("empty record body")}
	}

	var w recordWire
	if err := json.Unmarshal(b, &w); err != nil {
		return models.Record{}, &common.DecodeError{Key: key, Err: err}
	}

	var missing []string
	if w.State == nil {
		missing = append(missing, "state")
	}
	if w.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if w.Player == nil {
		missing = append(missing, "player")
	}
	if w.GameType == nil {
		missing = append(missing, "gameType")
	}
	if len(missing) > 0 {
		return models.Record{}, &common.DecodeError{Key: key, Err: fmt.Errorf("missing fields %v", missing)}
	}

	r := models.Record{
		ID:           id,
		EncodedState: *w.State,
		CreatedAt:    *w.Timestamp,
		Owner:        *w.Player,
		Category:     *w.GameType,
	}
	// absent "revealed" means hidden
	if w.Revealed != nil {
		r.Revealed = *w.Revealed
	}
	return r, nil
}

// MarkRevealed sets "revealed" to true in a stored body and keeps every
// other member as it was, including ones this package does not know.
func MarkRevealed(id string, b []byte) ([]byte, error) {
	if _, err := DecodeRecord(id, b); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, &common.DecodeError{Key: common.RecordKey(id), Err: err}
	}
	fields["revealed"] = json.RawMessage("true")

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", id, err)
	}
	return out, nil
}
