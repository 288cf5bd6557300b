//go:build linux

package spgo

import "golang.org/x/sys/unix"

func frameKey() int64 {
	return int64(unix.Gettid())
}
