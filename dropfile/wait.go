package dropfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Wait blocks until the dropfile at path exists, for at most timeout. A
// host usually writes the file moments before (or after) launching the
// door, so a watcher on the parent directory catches it as it lands; a
// slow stat loop backs that up for filesystems that do not deliver
// events.
func Wait(path string, timeout time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	deadline := time.Now().Add(timeout)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			watcher = nil
		}
	} else {
		watcher = nil
	}

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w after %s: %s", ErrMissing, timeout, path)
		}

		if watcher != nil {
			select {
			case event := <-watcher.Events:
				if event.Name == path && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					return nil
				}
			case <-watcher.Errors:
				watcher = nil
			case <-tick.C:
			case <-time.After(remaining):
			}
		} else {
			select {
			case <-tick.C:
			case <-time.After(remaining):
			}
		}

		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
}
