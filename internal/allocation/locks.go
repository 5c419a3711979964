package allocation

import (
	"fmt"
	"sync"
)

// tierLocks serializes purchase check+commit per (event, tier). Purchases on
// disjoint tiers proceed in parallel; two purchases on the same tier never
// interleave between the precondition check and the commit.
type tierLocks struct {
	locks sync.Map
}

func (l *tierLocks) acquire(eventID, tierID int64) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", eventID, tierID)
	v, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}
