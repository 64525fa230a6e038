package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aijobhunter/jobhunter/internal/apperr"
)

// spaHandler serves the built frontend from dir. Paths without a matching file
// get index.html so client-side routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			p := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	})
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	apperr.Write(w, nil, apperr.NotFound("not found"))
}
