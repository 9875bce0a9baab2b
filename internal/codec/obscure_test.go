package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedFHE_Obscure(t *testing.T) {
	out, err := SimulatedFHE{}.Obscure("Poker", "fold")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, SimulatedFHEPrefix))
	assert.NotContains(t, out, "fold")

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, SimulatedFHEPrefix))
	require.NoError(t, err)
	var env map[string]string
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, map[string]string{"gameType": "Poker", "initialState": "fold"}, env)
}

func TestIDGenerator_Format(t *testing.T) {
	g := &IDGenerator{
		Now:  func() time.Time { return time.UnixMilli(1700000000123) },
		Rand: bytes.NewReader([]byte{0, 1, 35, 36, 71, 200, 255}),
	}
	id, err := g.NewID()
	require.NoError(t, err)
	assert.Equal(t, "1700000000123-01z0zk3", id)
}

func TestIDGenerator_DefaultShape(t *testing.T) {
	id, err := NewIDGenerator().NewID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{13}-[0-9a-z]{7}$`), id)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestIDGenerator_RandError(t *testing.T) {
	g := &IDGenerator{Now: time.Now, Rand: failingReader{}}
	_, err := g.NewID()
	require.ErrorContains(t, err, "entropy exhausted")
}
