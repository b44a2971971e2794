package exnest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/exnestai/exnest-go/internal/logging"
)

const configReloadDebounce = 500 * time.Millisecond

// ConfigWatcher reloads a YAML config file when it changes on disk and
// publishes the result through Client.Reconfigure, so a rotated credential
// takes effect without restarting the process.
type ConfigWatcher struct {
	client  *Client
	path    string
	watcher *fsnotify.Watcher

	mu          sync.Mutex
	reloadTimer *time.Timer
	lastHash    string
	done        chan struct{}
}

// WatchConfigFile starts watching path. The file must load successfully once
// before watching begins. Close the returned watcher to stop.
func (c *Client) WatchConfigFile(path string) (*ConfigWatcher, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.replace(cfg); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory so atomic replaces (write temp + rename) are seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	w := &ConfigWatcher{
		client:  c,
		path:    path,
		watcher: fw,
		done:    make(chan struct{}),
	}
	if data, err := os.ReadFile(path); err == nil {
		w.lastHash = contentHash(data)
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher. It is safe to call once.
func (w *ConfigWatcher) Close() error {
	w.mu.Lock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
		w.reloadTimer = nil
	}
	w.mu.Unlock()
	close(w.done)
	return w.watcher.Close()
}

func (w *ConfigWatcher) loop() {
	relevantOps := fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path || event.Op&relevantOps == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Errorf("config watcher: %v", err)
		}
	}
}

// scheduleReload debounces bursts of write events into one reload.
func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
	}
	w.reloadTimer = time.AfterFunc(configReloadDebounce, w.reloadIfChanged)
}

func (w *ConfigWatcher) reloadIfChanged() {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		logging.Errorf("config watcher: read %s: %v", w.path, err)
		return
	}
	if len(data) == 0 {
		// Atomic replace in progress; the write event for the real content
		// follows.
		logging.Debugf("config watcher: ignoring empty write to %s", w.path)
		return
	}
	hash := contentHash(data)
	if hash == w.lastHash {
		logging.Debugf("config watcher: content unchanged, skipping reload")
		return
	}

	cfg, err := LoadConfigFile(w.path)
	if err != nil {
		logging.Errorf("config watcher: reload %s: %v", w.path, err)
		return
	}
	if err := w.client.replace(cfg); err != nil {
		logging.Errorf("config watcher: rejected %s: %v", w.path, err)
		return
	}
	w.lastHash = hash
	logging.Infof("config watcher: reloaded %s", w.path)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
