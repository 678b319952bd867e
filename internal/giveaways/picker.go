package giveaways

import (
	"math/rand"
	"sync"
	"time"
)

// Picker draws giveaway winners. An optional override participant, when
// present in the pool, always wins one slot; the rest are drawn
// uniformly without replacement.
type Picker struct {
	mu       sync.Mutex
	override int64
	rng      *rand.Rand
}

// NewPicker builds a picker. Pass override 0 to disable the override.
func NewPicker(override int64) *Picker {
	return &Picker{
		override: override,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Picker) WithRand(rng *rand.Rand) {
	p.rng = rng
}

// Pick selects up to k winners from the entry set. An empty pool yields
// no winners. The override participant, if entered, consumes one slot
// unconditionally; only the remaining slots are drawn at random. Without
// the override, a pool of at most k entrants all win.
func (p *Picker) Pick(entries []int64, k int) []int64 {
	if len(entries) == 0 || k < 1 {
		return nil
	}

	pool := make([]int64, 0, len(entries))
	overridden := false
	for _, user := range entries {
		if p.override != 0 && user == p.override {
			overridden = true
			continue
		}
		pool = append(pool, user)
	}

	if overridden {
		winners := make([]int64, 0, k)
		winners = append(winners, p.override)
		winners = append(winners, p.sample(pool, k-1)...)
		return winners
	}
	if len(entries) <= k {
		return append([]int64(nil), entries...)
	}
	return p.sample(pool, k)
}

func (p *Picker) sample(pool []int64, n int) []int64 {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	shuffled := append([]int64(nil), pool...)
	p.mu.Lock()
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	p.mu.Unlock()
	return shuffled[:n]
}
