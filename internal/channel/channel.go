// Package channel wraps Go channels behind small interfaces so producers
// and consumers of the event bus can be swapped in tests and debug builds.
package channel

type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

type Sender[T any] interface {
	// Send blocks until the value is accepted.
	Send(T)
	// TrySend reports false instead of blocking.
	TrySend(T) bool
}

type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
