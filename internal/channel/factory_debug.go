//go:build debug

package channel

// New ignores size in debug builds so every hand-off is synchronous and
// ordering bugs surface early.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
