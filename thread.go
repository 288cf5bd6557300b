package spgo

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/obinnaokechukwu/spgo/host"
)

// callContext is the per-thread execution context handed to every step of
// a callback that touches the host runtime.
type callContext struct {
	env host.Env
	key int64
}

type threadFrame struct {
	ctx   *callContext
	depth int
}

// threadAdapter attaches native threads to the host runtime.
//
// enter locks the goroutine to its OS thread so the frame key is stable
// until the matching exit. A caller that is already inside enter gets the
// same context back and is detached only when the outermost exit runs.
// Frames are keyed by OS thread id on linux and by goroutine id elsewhere.
type threadAdapter struct {
	rt  host.Runtime
	log zerolog.Logger

	mu     sync.Mutex
	frames map[int64]*threadFrame
}

func newThreadAdapter(rt host.Runtime, log zerolog.Logger) *threadAdapter {
	return &threadAdapter{
		rt:     rt,
		log:    log,
		frames: make(map[int64]*threadFrame),
	}
}

func (a *threadAdapter) enter() (*callContext, error) {
	runtime.LockOSThread()
	key := frameKey()
	a.mu.Lock()
	if f := a.frames[key]; f != nil {
		f.depth++
		a.mu.Unlock()
		return f.ctx, nil
	}
	a.mu.Unlock()

	env, err := a.rt.Attach()
	if err != nil {
		runtime.UnlockOSThread()
		attachFailures.Inc()
		return nil, fmt.Errorf("%w: %v", ErrAttach, err)
	}
	ctx := &callContext{env: env, key: key}
	a.mu.Lock()
	a.frames[key] = &threadFrame{ctx: ctx, depth: 1}
	a.mu.Unlock()
	return ctx, nil
}

func (a *threadAdapter) exit(ctx *callContext) {
	defer runtime.UnlockOSThread()
	a.mu.Lock()
	if f := a.frames[ctx.key]; f != nil && f.ctx == ctx {
		f.depth--
		if f.depth > 0 {
			a.mu.Unlock()
			return
		}
		delete(a.frames, ctx.key)
	}
	a.mu.Unlock()
	if err := a.rt.Detach(ctx.env); err != nil {
		a.log.Error().Err(err).Msg("failed to detach thread from host runtime")
	}
}

// attachedThreads reports how many threads are currently inside enter.
func (a *threadAdapter) attachedThreads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

// goroutineID parses the id out of the "goroutine N [status]:" header of
// the current stack.
func goroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
