package inference

import (
	"strings"
	"sync"
)

// CostTable maps models to consumption-unit ("neuron") pricing. It is the
// fallback used when the upstream response carries no usage data: the unit
// cost is derived from token volume, or from text length when token counts
// are also missing.
//
// CostTable is thread-safe and supports hot-reload of pricing.
type CostTable struct {
	// unitsPer1KTokens maps model prefix to neurons per 1000 tokens.
	unitsPer1KTokens map[string]int64

	// defaultUnitsPer1K applies to models without an entry.
	defaultUnitsPer1K int64

	mu sync.RWMutex
}

// charsPerToken is the rough character-to-token ratio used when the
// upstream reports neither units nor token counts.
const charsPerToken = 4

// DefaultCostTable returns a table with conservative defaults: larger
// models cost more neurons per token.
func DefaultCostTable() *CostTable {
	return &CostTable{
		unitsPer1KTokens: map[string]int64{
			"tiny":  1,
			"small": 2,
			"base":  4,
			"large": 8,
		},
		defaultUnitsPer1K: 4,
	}
}

// NewCostTable creates a table from explicit pricing. Model names are
// matched by prefix so families ("large-v2", "large-v3") share an entry.
func NewCostTable(unitsPer1K map[string]int64, defaultUnitsPer1K int64) *CostTable {
	if defaultUnitsPer1K <= 0 {
		defaultUnitsPer1K = 4
	}
	table := make(map[string]int64, len(unitsPer1K))
	for model, units := range unitsPer1K {
		table[model] = units
	}
	return &CostTable{
		unitsPer1KTokens:  table,
		defaultUnitsPer1K: defaultUnitsPer1K,
	}
}

// Units estimates the neuron cost of a call. totalTokens may be zero, in
// which case tokens are approximated from prompt and completion length.
// The estimate always charges at least one unit for a completed call.
func (t *CostTable) Units(model string, totalTokens int, prompt, completion string) int64 {
	if totalTokens <= 0 {
		totalTokens = (len(prompt) + len(completion)) / charsPerToken
	}

	per1K := t.rateFor(model)
	units := int64(totalTokens) * per1K / 1000
	if units < 1 {
		units = 1
	}
	return units
}

// SetPricing replaces the table's pricing.
func (t *CostTable) SetPricing(unitsPer1K map[string]int64, defaultUnitsPer1K int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.unitsPer1KTokens = make(map[string]int64, len(unitsPer1K))
	for model, units := range unitsPer1K {
		t.unitsPer1KTokens[model] = units
	}
	if defaultUnitsPer1K > 0 {
		t.defaultUnitsPer1K = defaultUnitsPer1K
	}
}

// rateFor returns the neurons-per-1K-tokens rate for model.
func (t *CostTable) rateFor(model string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if units, ok := t.unitsPer1KTokens[model]; ok {
		return units
	}
	for prefix, units := range t.unitsPer1KTokens {
		if strings.HasPrefix(model, prefix) {
			return units
		}
	}
	return t.defaultUnitsPer1K
}
