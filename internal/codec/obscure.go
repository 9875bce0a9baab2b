package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Obscurer produces the opaque encodedState for a new record.
type Obscurer interface {
	Obscure(category, plaintext string) (string, error)
}

// SimulatedFHEPrefix marks payloads produced by SimulatedFHE.
const SimulatedFHEPrefix = "FHE-"

// SimulatedFHE stands in for homomorphic encryption: it base64-encodes the
// seed envelope behind a marker prefix. It offers no confidentiality.
type SimulatedFHE struct{}

type seedEnvelope struct {
	GameType     string `json:"gameType"`
	InitialState string `json:"initialState"`
}

func (SimulatedFHE) Obscure(category, plaintext string) (string, error) {
	b, err := json.Marshal(seedEnvelope{GameType: category, InitialState: plaintext})
	if err != nil {
		return "", fmt.Errorf("obscure state: %w", err)
	}
	return SimulatedFHEPrefix + base64.StdEncoding.EncodeToString(b), nil
}
