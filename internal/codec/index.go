package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/common"
)

// EncodeIndex serialises ids as a JSON array, preserving order.
func EncodeIndex(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return b, nil
}

// DecodeIndex parses the index bytes. Empty bytes are an empty index.
func DecodeIndex(b []byte) ([]string, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, &common.DecodeError{Key: common.IndexKey, Err: err}
	}
	if ids == nil {
		return nil, &common.DecodeError{Key: common.IndexKey, Err: errors.New("index is null")}
	}
	return ids, nil
}
