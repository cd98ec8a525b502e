package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider reads one secret per file from a mounted directory, the
// layout used by Kubernetes and Docker secrets. Files must be 0600 or
// 0400 and lookups cannot leave the directory, symlinks included.
//
// Values are kept in memory after the first read. With Watch set, any
// change in the directory drops them so a rotated key is used by the
// next request.
type FileProvider struct {
	BasePath string
	Watch    bool

	root *os.Root

	mu       sync.RWMutex
	values   map[string]string
	onChange func()

	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	done      chan struct{}
}

func NewFileProvider(basePath string, watch bool) (*FileProvider, error) {
	root, err := os.OpenRoot(basePath)
	if err != nil {
		return nil, fmt.Errorf("secrets directory %s: %w", basePath, err)
	}

	p := &FileProvider{
		BasePath: basePath,
		Watch:    watch,
		root:     root,
		values:   map[string]string{},
		done:     make(chan struct{}),
	}
	log := slog.With("component", "secrets", "path", basePath, "watch", watch)

	if !watch {
		close(p.done)
		log.Info("file secret provider ready")
		return p, nil
	}

	w, err := fsnotify.NewWatcher()
	if err == nil {
		err = w.Add(basePath)
		if err != nil {
			_ = w.Close()
		}
	}
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("watch secrets directory: %w", err)
	}
	p.watcher = w
	go p.watch(log)

	log.Info("file secret provider ready")
	return p, nil
}

// validName accepts a plain file name. Anything with a separator or a
// leading dot is rejected before touching the filesystem.
func validName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid secret name %q", name)
	}
	return nil
}

// GetSecret returns the trimmed file contents for name. A missing or
// blank file is reported as ErrNotFound.
func (p *FileProvider) GetSecret(_ context.Context, name string) (string, error) {
	p.mu.RLock()
	value, ok := p.values[name]
	p.mu.RUnlock()
	if ok {
		return value, nil
	}

	if err := validName(name); err != nil {
		return "", err
	}
	info, err := p.root.Stat(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: no file %s in %s", ErrNotFound, name, p.BasePath)
	case err != nil:
		return "", err
	case !info.Mode().IsRegular():
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("secret %s has mode %#o, want 0600 or 0400", name, perm)
	}

	data, err := p.root.ReadFile(name)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNotFound, name)
	}

	p.mu.Lock()
	p.values[name] = value
	p.mu.Unlock()
	return value, nil
}

// ListSecrets names the regular files in the directory.
func (p *FileProvider) ListSecrets(context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.BasePath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && validName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (p *FileProvider) Provider() string { return "file" }

// Supports reports whether the directory holds a regular file for name,
// so the manager falls through to the environment otherwise.
func (p *FileProvider) Supports(name string) bool {
	if validName(name) != nil {
		return false
	}
	info, err := p.root.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

// Refresh forgets every value read so far.
func (p *FileProvider) Refresh(context.Context) error {
	p.mu.Lock()
	clear(p.values)
	p.mu.Unlock()
	return nil
}

// OnChange registers fn to run each time the watcher drops cached values.
func (p *FileProvider) OnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Close stops watching and releases the directory handle.
func (p *FileProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.watcher != nil {
			err = p.watcher.Close()
		}
		<-p.done
		err = errors.Join(err, p.root.Close())
	})
	return err
}

func (p *FileProvider) watch(log *slog.Logger) {
	defer close(p.done)

	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("secrets directory changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())

			p.mu.Lock()
			clear(p.values)
			fn := p.onChange
			p.mu.Unlock()
			if fn != nil {
				fn()
			}

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			log.Error("secrets watcher error", "error", err)
		}
	}
}
