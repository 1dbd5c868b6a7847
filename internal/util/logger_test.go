package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerNeverNil(t *testing.T) {
	require.NotNil(t, GetLogger())
}

func TestGetLoggerConcurrent(t *testing.T) {
	// Request handlers and workers fetch the logger on hot paths; concurrent
	// access must be safe without initialization having run.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger := GetLogger()
			assert.NotNil(t, logger)
			logger.Debug("concurrent access")
		}()
	}
	wg.Wait()
}
