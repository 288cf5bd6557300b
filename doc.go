// Package spgo bridges a native media-streaming library to listener objects
// living in a managed runtime.
//
// The native library runs its own session thread, completes requests
// asynchronously and hands out reference-counted handles. A Bridge takes
// those completions, turns handles into managed result objects and invokes
// the registered listeners, keeping three promises on every path, including
// failures:
//
//   - every native reference it takes is released exactly once;
//   - every global managed reference it pins is unpinned exactly once;
//   - nothing raised on the managed side propagates back into native code.
//
// # Wiring
//
//	be, _ := libspotify.NewBackend(session)
//	rt := reflecthost.New(reflecthost.WithClasses(media.Classes()))
//	b, _ := spgo.New(be, rt, spgo.WithRequester(be))
//	_ = b.SetListener(spgo.CategorySearch, rt.Pin(mySearchListener))
//	go b.Run(ctx) // drives the pending-load queue
//
// Listeners must be registered before the backend can fire callbacks. After
// registration the listener table is read without locks.
//
// Search and browse completions are routed by the request that started
// them. Image loads and playlist changes are routed by LoadImage and
// WatchPlaylist, which use the backend's Watcher:
//
//	_ = b.LoadImage(image, 0, 7, backend.ImageSizeLarge)
//	stop, _ := b.WatchPlaylist(playlist, 8)
//	defer stop()
//
// # Tokens
//
// Search and load requests carry a caller-chosen int32 token that is handed
// back unchanged to the listener. The bridge does not check tokens for
// uniqueness.
package spgo
