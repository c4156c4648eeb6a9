package static

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

var assetExts = []string{".js", ".css", ".svg", ".ico", ".png", ".jpg", ".webp", ".woff2", ".txt", ".map", ".json"}

// Handler serves a built web client from dir. Asset requests go to the file
// server; every other path gets index.html so client-side routes such as
// /?room=ABC234 resolve.
func Handler(dir string) http.Handler {
	return handler(os.DirFS(dir))
}

func handler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAsset(r.URL.Path) {
			fileServer.ServeHTTP(w, r)
			return
		}
		b, err := fs.ReadFile(root, "index.html")
		if err != nil {
			http.Error(w, "index not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}

func isAsset(p string) bool {
	if strings.HasPrefix(p, "/assets/") {
		return true
	}
	ext := path.Ext(p)
	for _, e := range assetExts {
		if ext == e {
			return true
		}
	}
	return false
}
