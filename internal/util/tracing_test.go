package util

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTracerNeverNil(t *testing.T) {
	require.NotNil(t, GetTracer())
}

func TestStartSpanConcurrent(t *testing.T) {
	// Every purchase starts a span, so simultaneous purchases hit the shared
	// tracer at once.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, span := StartSpan(context.Background(), "concurrent-op")
			assert.NotNil(t, ctx)
			span.End()
		}()
	}
	wg.Wait()
}
