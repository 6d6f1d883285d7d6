package testutil

import (
	"context"
	"sync"

	"github.com/heycatch/wirewizard/internal/tunnel"
)

// MockRunner implements tunnel.Runner for testing. Each invocation is
// recorded as "<verb> <name>".
type MockRunner struct {
	mu       sync.Mutex
	Commands []string

	RunFn func(ctx context.Context, verb, name string) (tunnel.Result, error)
}

func (m *MockRunner) Run(ctx context.Context, verb, name string) (tunnel.Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, verb+" "+name)
	m.mu.Unlock()
	if m.RunFn != nil {
		return m.RunFn(ctx, verb, name)
	}
	return tunnel.Result{Command: []string{"wg-quick", verb, name}}, nil
}

// Ran returns the recorded "<verb> <name>" strings in order.
func (m *MockRunner) Ran() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Commands))
	copy(out, m.Commands)
	return out
}
