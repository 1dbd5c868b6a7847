// Package codes generates the opaque public identifiers used by tickets and
// payments. It is responsible for the shape of the identifiers only;
// uniqueness is enforced by the store against the persisted set.
package codes

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	mrand "math/rand"
)

// Ticket codes are public lookup keys, not security credentials: they only
// need to be uniform and hard to guess casually. 62^11 possible codes.
const (
	ticketCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	ticketCodeLength   = 11

	paymentRefPrefix = "PAY-"
	paymentRefLength = 16
)

// Generator produces ticket codes and payment reference codes.
type Generator struct {
	mu  sync.Mutex
	src *mrand.Rand
	now func() time.Time
}

// NewGenerator returns a generator seeded from crypto/rand.
func NewGenerator() *Generator {
	var b [8]byte
	_, _ = rand.Read(b[:])
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	return &Generator{
		src: mrand.New(mrand.NewSource(seed)),
		now: time.Now,
	}
}

// TicketCode returns an 11-character code drawn uniformly from the
// 62-symbol alphanumeric alphabet.
func (g *Generator) TicketCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sb strings.Builder
	sb.Grow(ticketCodeLength)
	for i := 0; i < ticketCodeLength; i++ {
		sb.WriteByte(ticketCodeAlphabet[g.src.Intn(len(ticketCodeAlphabet))])
	}
	return sb.String()
}

// PaymentReference derives a reference code from the current high-resolution
// timestamp: the first 16 hex characters of sha256("PAY-" + timestamp),
// upper-cased. Collisions are possible on timestamp reuse and are resolved
// by the caller's generate-check-retry loop.
func (g *Generator) PaymentReference() string {
	g.mu.Lock()
	ts := g.now().Format(time.RFC3339Nano)
	g.mu.Unlock()

	sum := sha256.Sum256([]byte(paymentRefPrefix + ts))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:paymentRefLength])
}
