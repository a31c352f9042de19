package segment

import (
	"fmt"
	"sync/atomic"
)

// Generator issues segment IDs of the form "<channel>-seg-<n>".
// The counter is shared across channels so IDs stay unique process-wide.
type Generator struct {
	counter uint64
}

func New() *Generator {
	return &Generator{}
}

// Next returns the next segment ID for channelId. Safe for concurrent use.
func (g *Generator) Next(channelId string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-seg-%d", channelId, n)
}
