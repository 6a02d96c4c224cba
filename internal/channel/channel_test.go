package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Channel[int] = (*Buffered[int])(nil)
	_ Channel[int] = (*Unbuffered[int])(nil)
)

func TestBuffered(t *testing.T) {
	b := NewBuffered[string](2)
	assert.Equal(t, 2, b.Cap())

	b.Send("a")
	assert.True(t, b.TrySend("b"))
	assert.False(t, b.TrySend("c"), "full buffer rejects")
	assert.Equal(t, 2, b.Len())

	assert.Equal(t, "a", <-b.Receive())
	assert.Equal(t, "b", <-b.Receive())
	assert.Zero(t, b.Len())

	b.Close()
	_, ok := <-b.Receive()
	assert.False(t, ok)
}

func TestUnbuffered(t *testing.T) {
	u := NewUnbuffered[int]()
	assert.False(t, u.TrySend(1), "no receiver waiting")
	assert.Zero(t, u.Len())

	got := make(chan int)
	go func() { got <- <-u.Receive() }()
	u.Send(7)
	assert.Equal(t, 7, <-got)

	u.Close()
	_, ok := <-u.Receive()
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	ch := New[int](4)
	require.NotNil(t, ch)
	ch.Close()
}
