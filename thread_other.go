//go:build !linux

package spgo

// The goroutine stays locked to its thread between enter and exit, and a
// native call made from it calls back on the same goroutine.
func frameKey() int64 {
	return goroutineID()
}
