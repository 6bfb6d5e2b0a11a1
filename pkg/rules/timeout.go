package rules

import (
	"fmt"
	"time"
)

// DefaultTimeout is the limit for a single rule evaluation.
const DefaultTimeout = 2 * time.Second

type evalResult struct {
	name string
	err  error
}

// waitWithTimeout returns the first result from ch, or a timeout error.
// A timed-out evaluation keeps running; its buffered result is dropped.
func waitWithTimeout(ch <-chan evalResult, d time.Duration) (string, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.name, res.err
	case <-timer.C:
		return "", fmt.Errorf("rules: evaluation timed out after %s", d)
	}
}
