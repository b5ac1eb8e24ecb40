package storage

import (
	"fmt"
	json "github.com/goccy/go-json"
	"os"
	"sort"
	"sync"
)

// FileMedium keeps all items in memory and rewrites a compressed JSON file on
// every mutation, so each SetItem or RemoveItem is durable when it returns.
type FileMedium struct {
	mu         sync.RWMutex
	path       string
	items      map[string]string
	compressor Compressor
	closed     bool
}

// OpenFileMedium loads path if it exists. A missing file is an empty medium.
func OpenFileMedium(path string, compressor Compressor) (*FileMedium, error) {
	f := &FileMedium{
		path:       path,
		items:      make(map[string]string),
		compressor: compressor,
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileMedium) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", f.path, err)
	}
	if err := json.Unmarshal(decompressed, &f.items); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	if f.items == nil {
		f.items = make(map[string]string)
	}
	return nil
}

func (f *FileMedium) flush(items map[string]string) error {
	jsonData, err := json.Marshal(items)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := f.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, f.path)
}

func (f *FileMedium) GetItem(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *FileMedium) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	old, had := f.items[key]
	f.items[key] = value
	if err := f.flush(f.items); err != nil {
		if had {
			f.items[key] = old
		} else {
			delete(f.items, key)
		}
		return fmt.Errorf("persist %s: %w", f.path, err)
	}
	return nil
}

func (f *FileMedium) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	old, had := f.items[key]
	if !had {
		return nil
	}
	delete(f.items, key)
	if err := f.flush(f.items); err != nil {
		f.items[key] = old
		return fmt.Errorf("persist %s: %w", f.path, err)
	}
	return nil
}

func (f *FileMedium) Keys() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileMedium) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.compressor.Close()
	return nil
}
