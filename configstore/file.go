package configstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// Row is one persisted setting.
type Row struct {
	Key   string `yaml:"configKey"`
	Value string `yaml:"configValue"`
}

type document struct {
	Rows []Row `yaml:"rows"`
}

// FileRepository stores every row in one YAML document on a billy
// filesystem. Saves rewrite the document through a temp file and a rename.
type FileRepository struct {
	fs   billy.Filesystem
	name string

	mu sync.Mutex
}

// NewFileRepository returns a repository backed by name on fs. The file is
// created on the first Save.
func NewFileRepository(fs billy.Filesystem, name string) *FileRepository {
	return &FileRepository{fs: fs, name: name}
}

// OpenFileRepository is NewFileRepository on the OS filesystem rooted at dir.
func OpenFileRepository(dir, name string) *FileRepository {
	return NewFileRepository(osfs.New(dir), name)
}

func (f *FileRepository) Find(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	for _, r := range doc.Rows {
		if r.Key == key {
			return r.Value, true, nil
		}
	}
	return "", false, nil
}

func (f *FileRepository) Save(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}

	found := false
	for i := range doc.Rows {
		if doc.Rows[i].Key == key {
			doc.Rows[i].Value = value
			found = true
			break
		}
	}
	if !found {
		doc.Rows = append(doc.Rows, Row{Key: key, Value: value})
	}
	return f.store(doc)
}

func (f *FileRepository) load() (document, error) {
	var doc document
	data, err := util.ReadFile(f.fs, f.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("configstore: read %q: %w", f.name, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("configstore: decode %q: %w", f.name, err)
	}
	return doc, nil
}

func (f *FileRepository) store(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("configstore: encode: %w", err)
	}

	dir := path.Dir(f.name)
	if dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("configstore: mkdir %q: %w", dir, err)
		}
	}
	tmp, err := util.TempFile(f.fs, dir, ".config-")
	if err != nil {
		return fmt.Errorf("configstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("configstore: write %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("configstore: close %q: %w", tmpName, err)
	}
	if err := f.fs.Rename(tmpName, f.name); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("configstore: rename %q: %w", f.name, err)
	}
	return nil
}
