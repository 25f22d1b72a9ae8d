package matching

import "math/rand"

// Pool holds the labels not yet placed on a target, in display order.
type Pool struct {
	tokens []string
	rng    *rand.Rand
}

// NewPool returns an empty pool drawing order from rng.
func NewPool(rng *rand.Rand) *Pool {
	return &Pool{rng: rng}
}

// Build replaces the pool with a shuffled copy of answers.
func (p *Pool) Build(answers []string) {
	p.tokens = Shuffle(answers, p.rng)
}

// Reorder reshuffles the tokens still in the pool.
func (p *Pool) Reorder() {
	p.tokens = Shuffle(p.tokens, p.rng)
}

// Remove deletes the first token equal to token and reports whether one was found.
func (p *Pool) Remove(token string) bool {
	for i, t := range p.tokens {
		if t == token {
			p.tokens = append(p.tokens[:i], p.tokens[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether token is still unplaced.
func (p *Pool) Contains(token string) bool {
	for _, t := range p.tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Len returns the number of unplaced tokens.
func (p *Pool) Len() int {
	return len(p.tokens)
}

// Tokens returns the unplaced tokens in display order.
func (p *Pool) Tokens() []string {
	return append([]string(nil), p.tokens...)
}
