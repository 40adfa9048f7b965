package recall

import (
	"math"
	"regexp"
	"sync/atomic"

	"github.com/lira-ai/lira/pkg/memory"
)

// DefaultPersistThreshold is the top emotion score at which a turn is
// worth remembering.
const DefaultPersistThreshold = 0.6

var rePersistTrigger = regexp.MustCompile(`기억\s*해(줘|줄래)?|저장\s*해(줘|줄래)?`)

// Gate decides whether a turn is written to the long-term stores.
type Gate struct {
	threshold atomic.Uint64
}

// NewGate creates a gate. A non-positive threshold selects the default.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold changes the emotion threshold. It is safe to call while the
// gate is in use.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold <= 0 {
		threshold = DefaultPersistThreshold
	}
	g.threshold.Store(math.Float64bits(threshold))
}

// Threshold returns the current emotion threshold.
func (g *Gate) Threshold() float64 {
	return math.Float64frombits(g.threshold.Load())
}

// ShouldPersist reports whether the turn is emotionally strong enough, or
// explicitly asks to be remembered. Without emotions it is always false.
func (g *Gate) ShouldPersist(text string, emotions []memory.Emotion) bool {
	top, ok := memory.Top(emotions)
	if !ok {
		return false
	}
	return top.Score >= g.Threshold() || rePersistTrigger.MatchString(text)
}
