package ratelimit

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

/*
PROVIDER BUDGETS

A ProviderBudget declares the ceilings for one provider; at least one of
PerSec, PerMin, PerDay must be set. Budgets are immutable once
registered: Init materializes one Bucket per defined period and the
result is never mutated again.

The reference defaults below match the provider set fronted by this
gateway. LoadBudgetOverrides parses an override set from a YAML file
(same structure as the teacher's policy engine: validate fully before
accepting, otherwise keep the previous — in this case default — set).
The gateway's startup wiring registers DefaultBudgets and does not load
an override file.
*/

// ProviderBudget is the ceiling definition for one provider.
type ProviderBudget struct {
	PerSec *float64 `yaml:"per_sec,omitempty"`
	PerMin *float64 `yaml:"per_min,omitempty"`
	PerDay *float64 `yaml:"per_day,omitempty"`
}

func ptr(f float64) *float64 { return &f }

// DefaultBudgets is the reference provider budget set.
func DefaultBudgets() map[string]ProviderBudget {
	return map[string]ProviderBudget{
		"coingecko":     {PerSec: ptr(5), PerMin: ptr(30)},
		"etherscan":     {PerSec: ptr(5), PerDay: ptr(100_000)},
		"mempool_space": {PerSec: ptr(1)},
		"fx":            {PerMin: ptr(10)},
	}
}

type budgetFile struct {
	Budgets map[string]ProviderBudget `yaml:"budgets"`
}

// LoadBudgetOverrides reads and validates a YAML override file. On any
// error it returns the error and the caller is expected to keep using the
// default set rather than run with a partially-trusted override —
// mirroring the teacher policy engine's "invalid file means keep the
// previous, validated state" rule.
func LoadBudgetOverrides(path string) (map[string]ProviderBudget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read budget override file: %w", err)
	}

	var bf budgetFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := validateBudgets(bf.Budgets); err != nil {
		return nil, err
	}
	return bf.Budgets, nil
}

func validateBudgets(budgets map[string]ProviderBudget) error {
	if len(budgets) == 0 {
		return fmt.Errorf("budget file contains no providers")
	}
	for name, b := range budgets {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("budget entry has empty provider name")
		}
		if b.PerSec == nil && b.PerMin == nil && b.PerDay == nil {
			return fmt.Errorf("provider %q: at least one period ceiling is required", name)
		}
	}
	return nil
}

// periodSeconds maps a period name to its duration in seconds.
var periodSeconds = map[string]float64{
	"per_sec": 1,
	"per_min": 60,
	"per_day": 86400,
}

// Registry owns every Bucket materialized from the budget set, keyed by
// "{provider}:{period}".
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	byProv  map[string][]*Bucket
}

// NewRegistry builds a Registry with no buckets; call Init to populate it.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[string]*Bucket),
		byProv:  make(map[string][]*Bucket),
	}
}

// Init materializes one bucket per defined period per provider against
// backend. Called once at startup.
func (r *Registry) Init(backend Backend, budgets map[string]ProviderBudget) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for provider, budget := range budgets {
		for period, ceiling := range map[string]*float64{
			"per_sec": budget.PerSec,
			"per_min": budget.PerMin,
			"per_day": budget.PerDay,
		} {
			if ceiling == nil {
				continue
			}
			key := fmt.Sprintf("%s:%s", provider, period)
			refillRate := *ceiling / periodSeconds[period]
			bucket := NewBucket(backend, key, *ceiling, refillRate)
			r.buckets[key] = bucket
			r.byProv[provider] = append(r.byProv[provider], bucket)
		}
	}
}

// BucketsFor returns every bucket registered for provider, across all
// periods.
func (r *Registry) BucketsFor(provider string) []*Bucket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byProv[provider]
}

// Providers returns the set of registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byProv))
	for name := range r.byProv {
		names = append(names, name)
	}
	return names
}

// NewBucketFromRate registers a single ad hoc bucket directly from a
// (capacity, refillRate) pair rather than a period ceiling. This is an
// accepted alternate configuration shape (see DESIGN.md); the gateway's
// own wiring does not call it. Its semantics are identical to a
// period-derived bucket with the same capacity and rate.
func (r *Registry) NewBucketFromRate(backend Backend, provider, key string, capacity, refillRate float64) *Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := NewBucket(backend, key, capacity, refillRate)
	r.buckets[key] = bucket
	r.byProv[provider] = append(r.byProv[provider], bucket)
	return bucket
}
