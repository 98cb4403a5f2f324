package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/casdoor/oss"
)

// LocalFileSystem stores objects under a local folder.
type LocalFileSystem struct {
	Folder string
	// BaseURL prefixes keys in GetURL. Empty yields "/files/<key>".
	BaseURL string
}

// NewFileSystem creates the folder if needed.
func NewFileSystem(folder, baseURL string) (*LocalFileSystem, error) {
	if folder == "" {
		folder = "./uploads"
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve storage folder %s: %w", folder, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage folder %s: %w", abs, err)
	}
	return &LocalFileSystem{Folder: abs, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// GetFullPath maps a key inside the folder. Keys cannot escape it.
func (fs *LocalFileSystem) GetFullPath(p string) string {
	clean := filepath.Clean("/" + filepath.ToSlash(p))
	return filepath.Join(fs.Folder, clean)
}

func (fs *LocalFileSystem) Get(p string) (*os.File, error) {
	return os.Open(fs.GetFullPath(p))
}

func (fs *LocalFileSystem) GetStream(p string) (io.ReadCloser, error) {
	return fs.Get(p)
}

func (fs *LocalFileSystem) Put(p string, r io.Reader) (*oss.Object, error) {
	if p == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	fp := fs.GetFullPath(p)
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return nil, fmt.Errorf("create directories for %s: %w", p, err)
	}

	dst, err := os.Create(fp)
	if err != nil {
		return nil, fmt.Errorf("create file %s: %w", p, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, r)
	if err != nil {
		_ = os.Remove(fp)
		return nil, fmt.Errorf("write file %s: %w", p, err)
	}
	info, err := dst.Stat()
	if err != nil {
		return nil, err
	}
	mt := info.ModTime()
	return &oss.Object{Path: p, Name: filepath.Base(p), LastModified: &mt, Size: size, StorageInterface: fs}, nil
}

// Delete removes the object. A missing object is not an error.
func (fs *LocalFileSystem) Delete(p string) error {
	err := os.Remove(fs.GetFullPath(p))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (fs *LocalFileSystem) List(p string) ([]*oss.Object, error) {
	var (
		objects []*oss.Object
		root    = fs.GetFullPath(p)
	)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(fs.Folder, path)
		if err != nil {
			return err
		}
		mt := info.ModTime()
		objects = append(objects, &oss.Object{
			Path:             filepath.ToSlash(rel),
			Name:             info.Name(),
			LastModified:     &mt,
			Size:             info.Size(),
			StorageInterface: fs,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return objects, nil
}

func (fs *LocalFileSystem) GetEndpoint() string {
	if fs.BaseURL == "" {
		return "/files"
	}
	return fs.BaseURL
}

func (fs *LocalFileSystem) GetURL(p string) (string, error) {
	return fs.GetEndpoint() + "/" + strings.TrimPrefix(filepath.ToSlash(p), "/"), nil
}
