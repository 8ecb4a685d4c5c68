package validate

import (
	"math/rand"
	"sync"

	"credocs/internal/content"
	"credocs/internal/model"
)

// Gate decides whether a page-description binary file passes the structural
// integrity check after all content checks succeed. It stands in for real
// header/magic-byte validation of binary formats; the policy is injectable
// so tests stay deterministic.
type Gate func(docType model.DocumentType, ext string) bool

// AllowAll passes every file. Used in tests and when the gate is disabled.
func AllowAll(model.DocumentType, string) bool { return true }

// NewRandomGate rejects page-description formats with the given probability,
// driven by a seeded source. Non-binary formats always pass.
func NewRandomGate(rate float64, seed int64) Gate {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(_ model.DocumentType, ext string) bool {
		if !content.IsPageDescription(ext) {
			return true
		}
		mu.Lock()
		defer mu.Unlock()
		return rng.Float64() >= rate
	}
}
