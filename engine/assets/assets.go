package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
)

// BuildKey is the reserved index entry carrying the build id.
const BuildKey = "_build"

// Entry locates one asset inside the blob.
type Entry struct {
	Offset uint64 `yaml:"offset"`
	Size   uint64 `yaml:"size"`
}

// indexEntry is the on-disk form. Only the build entry uses ID.
type indexEntry struct {
	Offset uint64 `yaml:"offset"`
	Size   uint64 `yaml:"size"`
	ID     string `yaml:"id,omitempty"`
}

// ReloadedEvent is sent on the engine queue after the blob and index were
// re-read from disk.
type ReloadedEvent struct {
	BuildID string
}

// System serves named assets out of one packed blob described by a YAML
// index.
type System struct {
	dir       string
	blobPath  string
	indexPath string
	logger    *log.Logger

	mutex   sync.RWMutex
	blob    []byte
	entries map[string]Entry
	buildID string

	watcher *fsnotify.Watcher
	queue   *events.EventQueue
	pending atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// Open loads dir/index and dir/blob into memory.
func Open(dir, blob, index string) (*System, error) {
	s := &System{
		dir:       dir,
		blobPath:  filepath.Join(dir, blob),
		indexPath: filepath.Join(dir, index),
		logger:    core.SubLogger("assets"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.logger.Info("assets loaded", "count", len(s.entries), "build", s.buildID)
	return s, nil
}

// Reload re-reads the index and the blob. The previous contents stay in use
// if either fails to load.
func (s *System) Reload() error {
	raw, err := os.ReadFile(s.indexPath)
	if err != nil {
		return fmt.Errorf("read asset index: %w", err)
	}
	var index map[string]indexEntry
	if err := yaml.Unmarshal(raw, &index); err != nil {
		return fmt.Errorf("parse asset index %s: %w", s.indexPath, err)
	}
	blob, err := os.ReadFile(s.blobPath)
	if err != nil {
		return fmt.Errorf("read asset blob: %w", err)
	}

	entries := make(map[string]Entry, len(index))
	var buildID string
	for name, e := range index {
		if name == BuildKey {
			buildID = e.ID
			continue
		}
		if e.Offset+e.Size > uint64(len(blob)) || e.Offset+e.Size < e.Offset {
			return fmt.Errorf("asset %q [%d, +%d) exceeds blob size %d", name, e.Offset, e.Size, len(blob))
		}
		entries[name] = Entry{Offset: e.Offset, Size: e.Size}
	}

	s.mutex.Lock()
	s.blob = blob
	s.entries = entries
	s.buildID = buildID
	s.mutex.Unlock()
	return nil
}

// Read returns a copy of the named asset. An unknown name is logged and
// yields nil.
func (s *System) Read(name string) []byte {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		s.logger.Error("failed to find asset", "name", name)
		return nil
	}
	out := make([]byte, e.Size)
	copy(out, s.blob[e.Offset:e.Offset+e.Size])
	return out
}

func (s *System) ReadString(name string) string {
	return string(s.Read(name))
}

func (s *System) Has(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.entries[name]
	return ok
}

// Names lists every asset in lexical order.
func (s *System) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *System) BuildID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.buildID
}

// EnableHotReload watches the asset directory. Changes are only flagged by
// the watcher; Poll applies them and sends ReloadedEvent on q from the
// calling goroutine.
func (s *System) EnableHotReload(q *events.EventQueue) error {
	if s.watcher != nil {
		return errors.New("hot reload already enabled")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.watcher = watcher
	s.queue = q
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.watch()
	s.logger.Info("hot reload enabled", "dir", s.dir)
	return nil
}

func (s *System) watch() {
	defer s.wg.Done()
	for {
		select {
		case e, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if s.isTracked(e.Name) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				s.pending.Store(true)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("asset watcher", "err", err)
		case <-s.done:
			return
		}
	}
}

func (s *System) isTracked(name string) bool {
	clean := filepath.Clean(name)
	return clean == filepath.Clean(s.blobPath) || clean == filepath.Clean(s.indexPath)
}

// Poll applies a pending reload. It reports whether one happened.
func (s *System) Poll() bool {
	if !s.pending.CompareAndSwap(true, false) {
		return false
	}
	if err := s.Reload(); err != nil {
		// The builder may still be writing; try again on the next change.
		s.logger.Warn("asset reload failed", "err", err)
		return false
	}
	s.logger.Info("assets reloaded", "count", len(s.Names()), "build", s.BuildID())
	if s.queue != nil {
		events.Send(s.queue, ReloadedEvent{BuildID: s.BuildID()})
	}
	return true
}

// Close stops the watcher if hot reload was enabled.
func (s *System) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
	return err
}
