package match

import (
	"sync"

	"github.com/OCAP2/royale/internal/queue"
	"github.com/OCAP2/royale/pkg/core"
)

type pendingInput struct {
	PlayerID string
	Input    core.Input
}

// inbox buffers inputs between ticks. It is the only match state touched
// by submitting goroutines.
type inbox struct {
	mu      sync.Mutex
	highest map[string]uint64
	pending *queue.Queue[pendingInput]
}

func newInbox() *inbox {
	return &inbox{
		highest: make(map[string]uint64),
		pending: queue.New[pendingInput](),
	}
}

// submit queues the input unless its sequence is not newer than the highest
// already seen for the player. A queued input from the same player is replaced.
func (ib *inbox) submit(playerID string, in core.Input) bool {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	if in.Seq <= ib.highest[playerID] {
		return false
	}
	ib.highest[playerID] = in.Seq
	ib.pending.Replace(pendingInput{PlayerID: playerID, Input: in}, func(p pendingInput) bool {
		return p.PlayerID == playerID
	})
	return true
}

func (ib *inbox) drain() []pendingInput {
	return ib.pending.GetAndEmpty()
}
