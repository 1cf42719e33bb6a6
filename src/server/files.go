package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// apkContentType is not in every system mime table.
const apkContentType = "application/vnd.android.package-archive"

// fileHandler serves regular files below root. Directories and dot files are
// never served, so listings and in-progress temp files stay hidden.
type fileHandler struct {
	root       string
	immutable  bool
	extensions []string // tried in order when the requested name has no extension
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + chi.URLParam(r, "*"))
	if name == "/" || hasDotSegment(name) {
		http.NotFound(w, r)
		return
	}

	f, info, err := h.open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if path.Ext(info.Name()) == ".apk" {
		w.Header().Set("Content-Type", apkContentType)
	}
	w.Header().Set("ETag", etag(info))
	if h.immutable {
		w.Header().Set("Cache-Control", immutableCacheControl)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// open resolves name, falling back to name+ext for extension-less requests.
func (h *fileHandler) open(name string) (*os.File, fs.FileInfo, error) {
	candidates := []string{name}
	if path.Ext(name) == "" {
		for _, ext := range h.extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		full := filepath.Join(h.root, filepath.FromSlash(candidate))
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		f, err := os.Open(full)
		if err != nil {
			return nil, nil, err
		}
		return f, info, nil
	}
	return nil, nil, fs.ErrNotExist
}

// etag is a weak validator derived from size and modification time.
// Run files are written once, so it never changes for a given path.
func etag(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixMilli())
}

func hasDotSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
