package web

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/banshee-data/venus.report/internal/monitoring"
)

const reloadDebounce = 100 * time.Millisecond

// templateWatcher calls onChange whenever an .html file under dir is written,
// created, renamed or removed. Bursts for the same file are collapsed.
type templateWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string)
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

func watchTemplates(dir string, onChange func(path string)) (*templateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	tw := &templateWatcher{
		watcher:  w,
		onChange: onChange,
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go tw.run()
	return tw, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (tw *templateWatcher) Close() error {
	var err error
	tw.once.Do(func() {
		close(tw.closeCh)
		err = tw.watcher.Close()
		<-tw.done
	})
	return err
}

func (tw *templateWatcher) run() {
	defer close(tw.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isTemplateFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < reloadDebounce {
				continue
			}
			last[event.Name] = now
			tw.onChange(event.Name)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			monitoring.Logf("template watcher error: %v", err)
		case <-tw.closeCh:
			return
		}
	}
}

func isTemplateFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".html")
}
