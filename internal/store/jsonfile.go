package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// File permissions for the items file and its sidecar.
const filePerm fs.FileMode = 0o644

// metaSuffix names the sidecar file holding the ID counter.
const metaSuffix = ".meta"

// ErrCorruptFile is returned by ReadItems when the file is not a JSON array of items.
var ErrCorruptFile = errors.New("items file is not a valid JSON array")

// fileMeta is the content of the sidecar file.
type fileMeta struct {
	LastID int `json:"last_id"`
}

// Load reads the items file. A missing, unreadable or corrupt file yields an
// empty collection.
func Load(path string) []model.Item {
	items, err := ReadItems(path)
	if err != nil {
		return []model.Item{}
	}
	return items
}

// ReadItems reads the items file. A missing file is an empty collection;
// any other failure is returned.
func ReadItems(path string) ([]model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Item{}, nil
		}
		return []model.Item{}, fmt.Errorf("read %s: %w", path, err)
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return []model.Item{}, fmt.Errorf("%w: %s: %w", ErrCorruptFile, path, err)
	}
	if items == nil {
		// A file holding "null" decodes without error.
		return []model.Item{}, fmt.Errorf("%w: %s: null document", ErrCorruptFile, path)
	}

	return items, nil
}

// Save writes the full collection to path as a JSON array indented with two
// spaces, replacing the previous content in a single rename.
func Save(path string, items []model.Item) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// encodeItems renders items without HTML escaping and without a trailing
// newline, so a file written here is reproduced byte for byte by Save(Load()).
func encodeItems(items []model.Item) ([]byte, error) {
	if items == nil {
		items = []model.Item{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// readMeta returns the last ID recorded next to the items file. A missing
// sidecar reports zero.
func readMeta(path string) (int, error) {
	data, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read meta: %w", err)
	}

	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return 0, fmt.Errorf("decode meta: %w", err)
	}

	return meta.LastID, nil
}

func writeMeta(path string, lastID int) error {
	data, err := json.Marshal(fileMeta{LastID: lastID})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return writeFileAtomic(path+metaSuffix, data)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
