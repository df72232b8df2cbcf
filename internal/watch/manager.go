// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/examtrace/internal/queue"
	"github.com/examtrace/internal/source"
)

// Manager watches inbox directories and queues extraction jobs for every
// supported exam document that lands in them.
type Manager struct {
	watchPaths  []string
	jobQueue    queue.Queue
	broadcaster *Broadcaster
	watchers    map[string]*fsnotify.Watcher
	debouncer   *Debouncer
	seen        map[string]fileStamp
	queued      int
	seenMu      sync.Mutex
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// fileStamp is a cheap change detector: size plus mtime.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Status represents the current watcher status. QueuedTotal counts jobs
// queued since the watcher started; the manager never sees worker
// dequeues, so it cannot report a current queue depth.
type Status struct {
	WatchingPaths []string `json:"watching_paths"`
	QueuedTotal   int      `json:"queued_total"`
}

// NewManager creates a new watcher manager
func NewManager(watchPaths []string, jobQueue queue.Queue, broadcaster *Broadcaster) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		watchPaths:  watchPaths,
		jobQueue:    jobQueue,
		broadcaster: broadcaster,
		watchers:    make(map[string]*fsnotify.Watcher),
		debouncer:   NewDebouncer(500*time.Millisecond, nil),
		seen:        make(map[string]fileStamp),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts watching all configured paths
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.debouncer.Callback = func(filePath string) {
		m.queueFile(filePath)
	}

	for _, path := range m.watchPaths {
		if err := m.addWatchPath(path); err != nil {
			log.Printf("Start: failed to watch path %s: %v", path, err)
			continue
		}
	}

	for path, watcher := range m.watchers {
		m.wg.Add(1)
		go m.processEvents(path, watcher)
	}

	return nil
}

// Stop stops all watchers
func (m *Manager) Stop() {
	m.cancel()
	m.debouncer.Stop()

	m.mu.Lock()
	for path, watcher := range m.watchers {
		if err := watcher.Close(); err != nil {
			log.Printf("Stop: error closing watcher for %s: %v", path, err)
		}
		delete(m.watchers, path)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// Reload replaces the watched paths
func (m *Manager) Reload(newPaths []string) error {
	m.Stop()

	m.mu.Lock()
	m.watchPaths = newPaths
	m.watchers = make(map[string]*fsnotify.Watcher)
	ctx, cancel := context.WithCancel(context.Background())
	m.ctx = ctx
	m.cancel = cancel
	m.mu.Unlock()

	return m.Start()
}

// Status returns current status
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.watchers))
	for path := range m.watchers {
		paths = append(paths, path)
	}

	m.seenMu.Lock()
	queued := m.queued
	m.seenMu.Unlock()

	return Status{WatchingPaths: paths, QueuedTotal: queued}
}

// addWatchPath adds a directory to watch (recursively)
func (m *Manager) addWatchPath(rootPath string) error {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, exists := m.watchers[absPath]; exists {
		return nil
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		log.Printf("addWatchPath: created watch directory %s", absPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := watcher.Add(path); err != nil {
				log.Printf("addWatchPath: warning: failed to watch %s: %v", path, err)
			}
		}
		return nil
	}); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	m.watchers[absPath] = watcher
	log.Printf("addWatchPath: watching directory (recursive): %s", absPath)

	// Queue files that were already sitting in the inbox
	go m.scanExistingFiles(absPath)

	return nil
}

// processEvents processes file system events
func (m *Manager) processEvents(path string, watcher *fsnotify.Watcher) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// New subdirectories join the watch set
			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Printf("processEvents: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if source.IsTemporaryFile(event.Name) {
					continue
				}
				if source.IsSupportedFile(event.Name) {
					m.broadcaster.Broadcast(Event{
						Type:    "file_detected",
						Path:    event.Name,
						Message: fmt.Sprintf("File detected: %s", event.Name),
					})
					m.debouncer.Trigger(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("processEvents: watcher error for %s: %v", path, err)
			m.broadcaster.Broadcast(Event{
				Type:    "file_error",
				Message: fmt.Sprintf("Watcher error: %v", err),
				Error:   err.Error(),
			})
		}
	}
}

// scanExistingFiles queues files that already exist in the directory,
// going through the debouncer so a large inbox is not queued all at once.
func (m *Manager) scanExistingFiles(dir string) {
	log.Printf("scanExistingFiles: scanning %s", dir)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if source.IsTemporaryFile(path) {
				return nil
			}
			if source.IsSupportedFile(path) {
				m.debouncer.Trigger(path)
			}
		}
		return nil
	})

	if err != nil {
		log.Printf("scanExistingFiles: error scanning %s: %v", dir, err)
	}
}

// queueFile enqueues one extraction job, skipping unchanged files.
func (m *Manager) queueFile(filePath string) {
	info, err := os.Stat(filePath)
	if err != nil {
		log.Printf("queueFile: cannot stat %s: %v", filePath, err)
		return
	}

	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	m.seenMu.Lock()
	if prev, ok := m.seen[filePath]; ok && prev == stamp {
		m.seenMu.Unlock()
		log.Printf("queueFile: %s unchanged, skipping", filePath)
		return
	}
	m.seen[filePath] = stamp
	m.seenMu.Unlock()

	job, err := queue.NewExtractJob(filePath)
	if err != nil {
		log.Printf("queueFile: failed to build job for %s: %v", filePath, err)
		return
	}

	if err := m.jobQueue.Enqueue(m.ctx, job); err != nil {
		log.Printf("queueFile: failed to enqueue %s: %v", filePath, err)
		m.broadcaster.Broadcast(Event{
			Type:    "file_error",
			Path:    filePath,
			Message: fmt.Sprintf("Failed to queue %s", filePath),
			Error:   err.Error(),
		})
		return
	}

	m.seenMu.Lock()
	m.queued++
	m.seenMu.Unlock()

	m.broadcaster.Broadcast(Event{
		Type:    "file_queued",
		Path:    filePath,
		Message: fmt.Sprintf("Queued for extraction: %s", filePath),
	})
}
