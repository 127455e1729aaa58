// Package site serves the embedded dashboard page and its icon map.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/podium/internal/adapters/source"
)

// IconsPath is where the dashboard script fetches the icon map.
const IconsPath = "/data/emojiMap.json"

// Document is a raw file served as is.
type Document interface {
	Raw(ctx context.Context) ([]byte, error)
}

// Register attaches the dashboard routes to mux. icons may be nil, in
// which case the icon map is reported missing and the page falls back to
// its default emoji.
func Register(_ context.Context, mux *http.ServeMux, icons Document) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/", http.FileServer(FS()))
	mux.HandleFunc(IconsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || icons == nil {
			http.NotFound(w, r)
			return
		}
		data, err := icons.Raw(r.Context())
		if errors.Is(err, source.ErrSourceNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	})
}
