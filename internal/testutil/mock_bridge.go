package testutil

import (
	"sync"

	"github.com/heycatch/wirewizard/internal/wg"
)

// MockCall records a method invocation with its arguments.
type MockCall struct {
	Method string
	Args   []any
}

// MockBridge implements wg.Bridge for testing.
type MockBridge struct {
	mu    sync.Mutex
	Calls []MockCall

	GenerateKeyPairFn func() (string, string, error)
	InterfaceNamesFn  func() []string
	ReadConfigFn      func(name string) *wg.InterfaceConfig
	ReadStatsFn       func(name string) *wg.TunnelStats
	LinkExistsFn      func(name string) (bool, error)
	CloseFn           func() error
}

func (m *MockBridge) GenerateKeyPair() (string, string, error) {
	m.record("GenerateKeyPair")
	if m.GenerateKeyPairFn != nil {
		return m.GenerateKeyPairFn()
	}
	return "priv", "pub", nil
}

func (m *MockBridge) InterfaceNames() []string {
	m.record("InterfaceNames")
	if m.InterfaceNamesFn != nil {
		return m.InterfaceNamesFn()
	}
	return nil
}

func (m *MockBridge) ReadConfig(name string) *wg.InterfaceConfig {
	m.record("ReadConfig", name)
	if m.ReadConfigFn != nil {
		return m.ReadConfigFn(name)
	}
	return nil
}

func (m *MockBridge) ReadStats(name string) *wg.TunnelStats {
	m.record("ReadStats", name)
	if m.ReadStatsFn != nil {
		return m.ReadStatsFn(name)
	}
	return nil
}

func (m *MockBridge) LinkExists(name string) (bool, error) {
	m.record("LinkExists", name)
	if m.LinkExistsFn != nil {
		return m.LinkExistsFn(name)
	}
	return false, nil
}

func (m *MockBridge) Close() error {
	m.record("Close")
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

func (m *MockBridge) record(method string, args ...any) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

// CallMethods returns the method names of all recorded calls.
func (m *MockBridge) CallMethods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	methods := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		methods[i] = c.Method
	}
	return methods
}
