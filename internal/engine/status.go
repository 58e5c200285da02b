package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hybridmount/hybridmount/internal/state"
)

// Status returns the runtime state of the last mount run.
func (e *Engine) Status(ctx context.Context) (*state.RuntimeState, error) {
	rs, err := e.stateStore.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStateMissing
		}
		return nil, fmt.Errorf("failed to load runtime state: %w", err)
	}
	return rs, nil
}
