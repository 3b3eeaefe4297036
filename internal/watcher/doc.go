// Package watcher reports file system changes under the scan roots so a
// long-running server can rebuild its index.
//
// Events from fsnotify are filtered to the watched extensions, coalesced
// per path by a Debouncer, and delivered as Batches:
//
//	w, err := watcher.New(watcher.Options{Extensions: []string{"pdf"}})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, "/home/alice"); err != nil {
//	    return err
//	}
//
//	for batch := range w.Events() {
//	    rebuild(batch.Paths())
//	}
package watcher
