package codec

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	idSuffixLen = 7
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// IDGenerator builds record ids of the form "<unix-millis>-<7 base36 chars>".
// Uniqueness is probabilistic; ids are not checked against the index.
type IDGenerator struct {
	Now  func() time.Time
	Rand io.Reader
}

// NewIDGenerator returns a generator backed by the wall clock and crypto/rand.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{Now: time.Now, Rand: rand.Reader}
}

func (g *IDGenerator) NewID() (string, error) {
	buf := make([]byte, idSuffixLen)
	if _, err := io.ReadFull(g.Rand, buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	suffix := make([]byte, idSuffixLen)
	for i, b := range buf {
		suffix[i] = base36[int(b)%len(base36)]
	}
	return strconv.FormatInt(g.Now().UnixMilli(), 10) + "-" + string(suffix), nil
}
