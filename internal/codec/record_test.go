package codec

import (
	"testing"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecord_WireShape(t *testing.T) {
	r := models.Record{
		ID:           "1700000000000-abc1234",
		EncodedState: "FHE-e30=",
		CreatedAt:    1700000000,
		Owner:        "0xAbC",
		Category:     "Poker",
		Revealed:     false,
	}

	b, err := EncodeRecord(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"FHE-e30=","timestamp":1700000000,"player":"0xAbC","gameType":"Poker","revealed":false}`, string(b))
}

func TestRecord_RoundTrip(t *testing.T) {
	records := []models.Record{
		{ID: "a", EncodedState: "FHE-x", CreatedAt: 1, Owner: "0x1", Category: "Chess"},
		{ID: "b", EncodedState: "", CreatedAt: 0, Owner: "", Category: "", Revealed: true},
		{ID: "c", EncodedState: "ünïcødé \"quoted\"", CreatedAt: 1 << 40, Owner: "0xFF", Category: "RPG", Revealed: true},
	}
	for _, r := range records {
		t.Run(r.ID, func(t *testing.T) {
			b, err := EncodeRecord(r)
			require.NoError(t, err)

			got, err := DecodeRecord(r.ID, b)
			require.NoError(t, err)
			assert.Equal(t, r, got)
		})
	}
}

func TestDecodeRecord_RevealedDefaultsToFalse(t *testing.T) {
	got, err := DecodeRecord("x", []byte(`{"state":"s","timestamp":5,"player":"p","gameType":"RPG"}`))
	require.NoError(t, err)
	assert.False(t, got.Revealed)
	assert.Equal(t, "x", got.ID)
}

func TestDecodeRecord_IgnoresUnknownFields(t *testing.T) {
	got, err := DecodeRecord("x", []byte(`{"state":"s","timestamp":5,"player":"p","gameType":"RPG","revealed":true,"extra":1}`))
	require.NoError(t, err)
	assert.True(t, got.Revealed)
}

func TestDecodeRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "whitespace", in: "  \n"},
		{name: "not json", in: "game"},
		{name: "null", in: "null"},
		{name: "array", in: `["a"]`},
		{name: "missing state", in: `{"timestamp":5,"player":"p","gameType":"RPG"}`},
		{name: "missing timestamp", in: `{"state":"s","player":"p","gameType":"RPG"}`},
		{name: "missing player", in: `{"state":"s","timestamp":5,"gameType":"RPG"}`},
		{name: "missing gameType", in: `{"state":"s","timestamp":5,"player":"p"}`},
		{name: "timestamp as string", in: `{"state":"s","timestamp":"5","player":"p","gameType":"RPG"}`},
		{name: "revealed as string", in: `{"state":"s","timestamp":5,"player":"p","gameType":"RPG","revealed":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord("bad", []byte(tt.in))
			require.ErrorIs(t, err, common.ErrDecode)

			var de *common.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "game_bad", de.Key)
		})
	}
}

func TestMarkRevealed_KeepsOtherMembers(t *testing.T) {
	in := []byte(`{"state":"FHE-x","timestamp":5,"player":"0xA11CE","gameType":"Chess","moves":["e4"],"meta":{"round":2}}`)

	out, err := MarkRevealed("g1", in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"FHE-x","timestamp":5,"player":"0xA11CE","gameType":"Chess","revealed":true,"moves":["e4"],"meta":{"round":2}}`, string(out))

	again, err := MarkRevealed("g1", out)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(again))
}

func TestMarkRevealed_RejectsInvalidBody(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `{"state":"FHE-x"}`, `{`} {
		_, err := MarkRevealed("g1", []byte(body))
		assert.ErrorIs(t, err, common.ErrDecode, body)
	}
}
