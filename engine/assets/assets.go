// Package assets serves compiled denoiser shaders from a directory and watches it for changes.
package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/systems"
)

var ErrClosed = errors.New("shader library already closed")

type Option func(*ShaderLibrary)

func WithLogger(l core.Logger) Option {
	return func(sl *ShaderLibrary) { sl.logger = l }
}

// ShaderLibrary implements denoiser.ShaderSource over files named <shader><ext>, where ext is
// .dxbc, .dxil or .spv. Loaded bytecode is cached until the file changes on disk.
type ShaderLibrary struct {
	dir     string
	loaders map[int]Loader
	logger  core.Logger

	mutex sync.RWMutex
	cache map[string][]byte

	// dirty is set by the watcher and cleared by TakeDirty.
	dirty atomic.Bool

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	changes  chan string
	isClosed bool
}

var _ denoiser.ShaderSource = (*ShaderLibrary)(nil)

func NewShaderLibrary(dir string, opts ...Option) *ShaderLibrary {
	sl := &ShaderLibrary{
		dir:     filepath.Clean(dir),
		loaders: defaultLoaders(),
		logger:  core.DefaultLogger(),
		cache:   make(map[string][]byte),
		changes: make(chan string, 16),
	}
	for _, opt := range opts {
		opt(sl)
	}
	return sl
}

func (sl *ShaderLibrary) Dir() string {
	return sl.dir
}

func (sl *ShaderLibrary) path(shaderFileName string, kind int) string {
	return filepath.Join(sl.dir, shaderFileName+kindExtensions[kind])
}

// Bytecode returns the compiled shader, or an empty blob when the file does not exist, so an
// API whose kind is not shipped still resolves.
func (sl *ShaderLibrary) Bytecode(shaderFileName string, kind int) ([]byte, error) {
	if kind < 0 || kind >= len(kindExtensions) {
		return nil, errors.Newf("unknown shader kind %d", kind)
	}
	path := sl.path(shaderFileName, kind)

	sl.mutex.RLock()
	code, ok := sl.cache[path]
	sl.mutex.RUnlock()
	if ok {
		return code, nil
	}

	code, err := sl.loaders[kind].Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sl.mutex.Lock()
	sl.cache[path] = code
	sl.mutex.Unlock()
	sl.logger.Debug("shader loaded", "path", path, "bytes", len(code))
	return code, nil
}

// Preload reads every compiled shader in the directory on the job system, so pipeline creation
// hits the cache. It returns the number of files loaded.
func (sl *ShaderLibrary) Preload(js *systems.JobSystem) (int, error) {
	entries, err := os.ReadDir(sl.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "listing shaders")
	}

	n := 0
	for _, entry := range entries {
		kind := kindOf(filepath.Ext(entry.Name()))
		if entry.IsDir() || kind < 0 {
			continue
		}
		path := filepath.Join(sl.dir, entry.Name())
		loader := sl.loaders[kind]
		err := js.Submit(systems.JobTask{
			Name: entry.Name(),
			OnStart: func() error {
				code, err := loader.Load(path)
				if err != nil {
					return err
				}
				sl.mutex.Lock()
				sl.cache[path] = code
				sl.mutex.Unlock()
				return nil
			},
		})
		if err != nil {
			return n, err
		}
		n++
	}
	if err := js.Wait(); err != nil {
		return n, errors.Wrap(err, "preloading shaders")
	}
	sl.logger.Debug("shaders preloaded", "count", n, "dir", sl.dir)
	return n, nil
}

// Watch starts invalidating cached bytecode when files under the directory change.
func (sl *ShaderLibrary) Watch() error {
	if sl.isClosed {
		return ErrClosed
	}
	if sl.fsnotify != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating shader watcher")
	}
	sl.fsnotify = w
	sl.done = make(chan struct{})
	sl.stopped = make(chan struct{})

	if err := sl.watchRecursive(sl.dir); err != nil {
		w.Close()
		sl.fsnotify = nil
		return err
	}
	go sl.start()
	sl.logger.Info("watching shaders", "dir", sl.dir)
	return nil
}

// Changes delivers the paths of changed shader files. Deliveries are dropped when nobody reads.
func (sl *ShaderLibrary) Changes() <-chan string {
	return sl.changes
}

// TakeDirty reports whether any shader changed since the last call.
func (sl *ShaderLibrary) TakeDirty() bool {
	return sl.dirty.Swap(false)
}

func (sl *ShaderLibrary) Close() error {
	if sl.isClosed {
		return nil
	}
	sl.isClosed = true
	if sl.fsnotify == nil {
		return nil
	}
	close(sl.done)
	<-sl.stopped
	return sl.fsnotify.Close()
}

func (sl *ShaderLibrary) start() {
	defer close(sl.stopped)
	for {
		select {
		case e, ok := <-sl.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := sl.watchRecursive(e.Name); err != nil {
						sl.logger.Error("watching new directory", "dir", e.Name, "err", err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				sl.handleFileEvent(e.Name)
			}

		case err, ok := <-sl.fsnotify.Errors:
			if !ok {
				return
			}
			sl.logger.Error("shader watcher", "err", err)

		case <-sl.done:
			return
		}
	}
}

// watchRecursive adds path and every directory below it.
func (sl *ShaderLibrary) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return sl.fsnotify.Add(walkPath)
		}
		return nil
	})
}

// handleFileEvent drops the cached bytecode of a changed shader and flags the library dirty.
func (sl *ShaderLibrary) handleFileEvent(path string) {
	path = filepath.Clean(path)
	if kindOf(filepath.Ext(path)) < 0 {
		return
	}

	sl.mutex.Lock()
	delete(sl.cache, path)
	sl.mutex.Unlock()

	sl.dirty.Store(true)
	select {
	case sl.changes <- path:
	default:
	}
	sl.logger.Debug("shader changed", "path", path)
}
