package identifier

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

const (
	batchPrefix  = "BAT-"
	batchMin     = 100000
	batchSpan    = 900000
	serialPrefix = "SL-"
	serialMin    = 10000
	serialSpan   = 90000
)

// Generator produces product identifiers and display codes from a random source.
// Batch and serial codes are display conveniences and are not guaranteed unique.
type Generator struct {
	mu     sync.Mutex
	random io.Reader
}

// NewGenerator creates a generator reading from r. A fixed reader makes output deterministic.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Default returns a generator backed by crypto/rand.
func Default() *Generator {
	return NewGenerator(rand.Reader)
}

// NewProductID returns a random (version 4) UUID string.
func (g *Generator) NewProductID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewRandomFromReader(g.random)
	if err != nil {
		return "", fmt.Errorf("failed to read random product id: %w", err)
	}
	return id.String(), nil
}

// NewBatchCode returns a code of the form BAT-NNNNNN.
func (g *Generator) NewBatchCode() (string, error) {
	n, err := g.uniform(batchSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", batchPrefix, batchMin+n), nil
}

// NewSerialCode returns a code of the form SL-NNNNN.
func (g *Generator) NewSerialCode() (string, error) {
	n, err := g.uniform(serialSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", serialPrefix, serialMin+n), nil
}

// uniform returns a value in [0, n) without modulo bias.
func (g *Generator) uniform(n uint64) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit := ^uint64(0) - (^uint64(0) % n)
	var buf [8]byte
	for {
		if _, err := io.ReadFull(g.random, buf[:]); err != nil {
			return 0, fmt.Errorf("failed to read random code: %w", err)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return v % n, nil
		}
	}
}

// IsProductID reports whether s is a canonical product identifier.
func IsProductID(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.String() == s
}
