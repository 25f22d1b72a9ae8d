// Package matching implements the drag-and-drop matching game: pair
// registries, the label pool, the placement state machine and the desk
// that coordinates one game per subject for a visitor.
package matching

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyRegistry   = errors.New("registry has no pairs")
	ErrDuplicateKey    = errors.New("duplicate pair key")
	ErrDuplicateAnswer = errors.New("duplicate pair answer")
	ErrBlankField      = errors.New("pair field is blank")
	ErrUnknownSubject  = errors.New("unknown subject")
)

// Pair binds a drop target (Key, shown as Label) to the label value that
// belongs on it.
type Pair struct {
	Key    string
	Label  string
	Answer string
}

// Registry is an ordered, immutable set of pairs with unique keys and
// unique answers.
type Registry struct {
	pairs []Pair
	byKey map[string]int
}

// NewRegistry validates pairs and returns a registry over a copy of them.
func NewRegistry(pairs []Pair) (*Registry, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyRegistry
	}
	r := &Registry{
		pairs: make([]Pair, len(pairs)),
		byKey: make(map[string]int, len(pairs)),
	}
	answers := make(map[string]string, len(pairs))
	for i, p := range pairs {
		if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Answer) == "" {
			return nil, fmt.Errorf("%w: pair %d", ErrBlankField, i)
		}
		if _, ok := r.byKey[p.Key]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, p.Key)
		}
		if other, ok := answers[p.Answer]; ok {
			return nil, fmt.Errorf("%w: %q on %q and %q", ErrDuplicateAnswer, p.Answer, other, p.Key)
		}
		answers[p.Answer] = p.Key
		r.byKey[p.Key] = i
		r.pairs[i] = p
	}
	return r, nil
}

// MustRegistry is NewRegistry for content compiled into the binary.
func MustRegistry(pairs []Pair) *Registry {
	r, err := NewRegistry(pairs)
	if err != nil {
		panic(fmt.Sprintf("matching: invalid registry: %v", err))
	}
	return r
}

// Len returns the pair count.
func (r *Registry) Len() int {
	return len(r.pairs)
}

// Pairs returns the pairs in registry order.
func (r *Registry) Pairs() []Pair {
	return append([]Pair(nil), r.pairs...)
}

// Find returns the pair whose key is key.
func (r *Registry) Find(key string) (Pair, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Pair{}, false
	}
	return r.pairs[i], true
}

// Answers returns every answer in registry order.
func (r *Registry) Answers() []string {
	out := make([]string, len(r.pairs))
	for i, p := range r.pairs {
		out[i] = p.Answer
	}
	return out
}
