package main

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hatlonely/schemax/cfg"
	"github.com/hatlonely/schemax/log"
	"github.com/hatlonely/schemax/ref"
	"github.com/pkg/errors"
)

type WatcherOptions struct {
	Files    []string         `cfg:"files" validate:"required,min=1"`
	Debounce time.Duration    `cfg:"debounce" def:"200ms"`
	Logger   *ref.TypeOptions `cfg:"logger"`
}

// Watcher 监听一组文件，变化在 Debounce 时间内合并为一次通知
// 监听的是文件所在目录，编辑器先写临时文件再重命名的保存方式同样能被捕获
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration

	done chan struct{}
	wg   sync.WaitGroup

	logger log.Logger
}

func NewWatcherWithOptions(options *WatcherOptions) (*Watcher, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if len(options.Files) == 0 {
		return nil, errors.New("no file to watch")
	}
	o := *options
	if err := cfg.SetDefaults(&o); err != nil {
		return nil, err
	}
	if err := cfg.Validate(&o); err != nil {
		return nil, err
	}
	options = &o

	l, err := log.NewLoggerWithOptions(options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}

	w := &Watcher{
		files:    map[string]struct{}{},
		debounce: options.Debounce,
		done:     make(chan struct{}),
		logger:   l.WithGroup("watcher"),
	}
	dirs := map[string]struct{}{}
	for _, file := range options.Files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s failed", file)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		w.dirs = append(w.dirs, dir)
	}
	sort.Strings(w.dirs)
	return w, nil
}

// OnChange 开始监听，listener 在后台 goroutine 中串行调用，参数为本轮发生变化的文件
func (w *Watcher) OnChange(listener func(files []string) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "fsnotify.NewWatcher failed")
	}
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return errors.Wrapf(err, "watch %s failed", dir)
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()

		pending := map[string]struct{}{}
		timer := time.NewTimer(w.debounce)
		timer.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				name, err := filepath.Abs(event.Name)
				if err != nil {
					continue
				}
				if _, ok := w.files[name]; !ok {
					continue
				}
				pending[name] = struct{}{}
				timer.Reset(w.debounce)
			case <-timer.C:
				changed := make([]string, 0, len(pending))
				for name := range pending {
					changed = append(changed, name)
				}
				sort.Strings(changed)
				pending = map[string]struct{}{}

				w.logger.Info("files changed", "files", changed)
				if err := listener(changed); err != nil {
					w.logger.Warn("listener failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", "error", err)
			case <-w.done:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) Close() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.wg.Wait()
	return nil
}
