package codes

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketCodeShape(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 1000; i++ {
		code := g.TicketCode()
		require.Len(t, code, 11)
		for _, r := range code {
			assert.Contains(t, ticketCodeAlphabet, string(r))
		}
	}
}

func TestTicketCodeUniqueness(t *testing.T) {
	g := NewGenerator()

	seen := make(map[string]struct{}, 100000)
	for i := 0; i < 100000; i++ {
		code := g.TicketCode()
		_, dup := seen[code]
		require.False(t, dup, "duplicate ticket code %s after %d generations", code, i)
		seen[code] = struct{}{}
	}
}

func TestPaymentReferenceShape(t *testing.T) {
	g := NewGenerator()

	ref := g.PaymentReference()
	require.Len(t, ref, 16)
	assert.Equal(t, strings.ToUpper(ref), ref)
	for _, r := range ref {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}
}

func TestPaymentReferenceDerivedFromTimestamp(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

	fixed := NewGenerator()
	fixed.now = func() time.Time { return base }

	// Same timestamp, same digest.
	assert.Equal(t, fixed.PaymentReference(), fixed.PaymentReference())

	// Distinct timestamps, distinct references.
	var tick int
	moving := NewGenerator()
	moving.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Nanosecond)
	}

	seen := make(map[string]struct{}, 100000)
	for i := 0; i < 100000; i++ {
		ref := moving.PaymentReference()
		_, dup := seen[ref]
		require.False(t, dup, "duplicate payment reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestTicketCodeConcurrentGeneration(t *testing.T) {
	g := NewGenerator()

	const workers = 8
	results := make(chan string, workers*500)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < 500; i++ {
				results <- g.TicketCode()
			}
		}()
	}

	seen := make(map[string]struct{})
	for i := 0; i < workers*500; i++ {
		code := <-results
		require.Len(t, code, 11)
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code under concurrency: %s", code)
		}
		seen[code] = struct{}{}
	}
}

func BenchmarkTicketCode(b *testing.B) {
	g := NewGenerator()
	for i := 0; i < b.N; i++ {
		_ = g.TicketCode()
	}
}

func ExampleGenerator_PaymentReference() {
	g := NewGenerator()
	g.now = func() time.Time {
		return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	fmt.Println(len(g.PaymentReference()))
	// Output: 16
}
