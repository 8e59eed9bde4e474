// Package cache guarda datasets preparados en disco codificados con msgpack.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/alejandrodnm/walkforward/internal/marketdata"
	"github.com/alejandrodnm/walkforward/internal/ports"
)

const fileExt = ".msgpack"

// FileCache implementa ports.DatasetCache con un fichero por clave.
type FileCache struct {
	dir string
}

// NewFileCache crea el directorio si no existe.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache.NewFileCache: mkdir %q: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Path devuelve el fichero asociado a la clave.
func (c *FileCache) Path(key ports.DatasetKey) string {
	name := strings.Join([]string{
		sanitize(key.Symbol), key.Start, key.End, sanitize(key.Interval),
	}, "_")
	return filepath.Join(c.dir, name+fileExt)
}

// Get devuelve el dataset cacheado. Un fichero inexistente o ilegible
// cuenta como miss: se registra y el llamador vuelve a descargar.
func (c *FileCache) Get(ctx context.Context, key ports.DatasetKey) (*marketdata.Dataset, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path := c.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.Get: read %q: %w", path, err)
	}

	var ds marketdata.Dataset
	if err := msgpack.Unmarshal(data, &ds); err != nil {
		slog.Warn("discarding unreadable cache entry", "path", path, "err", err)
		return nil, false, nil
	}
	if ds.Len() == 0 {
		return nil, false, nil
	}

	slog.Info("loaded cached dataset", "symbol", ds.Symbol, "rows", ds.Len(), "path", path)
	return &ds, true, nil
}

// Put escribe el dataset de forma atómica (fichero temporal + rename).
func (c *FileCache) Put(ctx context.Context, key ports.DatasetKey, ds *marketdata.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("cache.Put: nil dataset")
	}

	data, err := msgpack.Marshal(ds)
	if err != nil {
		return fmt.Errorf("cache.Put: encode: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "dataset-*.tmp")
	if err != nil {
		return fmt.Errorf("cache.Put: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache.Put: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache.Put: close: %w", err)
	}

	path := c.Path(key)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cache.Put: rename to %q: %w", path, err)
	}
	slog.Debug("dataset cached", "path", path, "bytes", len(data))
	return nil
}

// sanitize deja el símbolo usable como nombre de fichero ("^GSPC" → "_GSPC").
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
}
