package services

import (
	"sync"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
)

// HookRegistry maps record models to their hooks.
type HookRegistry struct {
	mu       sync.RWMutex
	hooks    map[string]domain.Hooks
	fallback domain.Hooks
}

// NewHookRegistry creates a registry that answers fallback for unknown
// models. A nil fallback means domain.DefaultHooks.
func NewHookRegistry(fallback domain.Hooks) *HookRegistry {
	if fallback == nil {
		fallback = domain.DefaultHooks{}
	}
	return &HookRegistry{hooks: make(map[string]domain.Hooks), fallback: fallback}
}

// Register sets the hooks of a model.
func (r *HookRegistry) Register(model string, hooks domain.Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[model] = hooks
}

// For returns the hooks of a model.
func (r *HookRegistry) For(model string) domain.Hooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.hooks[model]; ok {
		return h
	}
	return r.fallback
}
