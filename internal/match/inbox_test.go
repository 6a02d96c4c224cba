package match

import (
	"fmt"
	"sync"
	"testing"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox_KeepsNewestPerPlayer(t *testing.T) {
	ib := newInbox()
	jump := core.JumpAction{}

	assert.True(t, ib.submit("a", core.Input{Seq: 1, Action: jump}))
	assert.True(t, ib.submit("b", core.Input{Seq: 1, Action: jump}))
	assert.True(t, ib.submit("a", core.Input{Seq: 3, Action: jump}))
	assert.False(t, ib.submit("a", core.Input{Seq: 2, Action: jump}))

	got := ib.drain()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].PlayerID)
	assert.Equal(t, "a", got[1].PlayerID)
	assert.Equal(t, uint64(3), got[1].Input.Seq)

	assert.Empty(t, ib.drain())
	assert.False(t, ib.submit("a", core.Input{Seq: 3, Action: jump}), "sequence survives a drain")
}

func TestInbox_ConcurrentSubmit(t *testing.T) {
	ib := newInbox()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for seq := uint64(1); seq <= 100; seq++ {
				ib.submit(id, core.Input{Seq: seq, Action: core.JumpAction{}})
			}
		}(fmt.Sprintf("p%d", i))
	}
	wg.Wait()

	got := ib.drain()
	require.Len(t, got, 8)
	for _, p := range got {
		assert.Equal(t, uint64(100), p.Input.Seq, p.PlayerID)
	}
}
