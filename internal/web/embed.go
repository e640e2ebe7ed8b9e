// Package web provides the embedded upload page.
package web

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var staticFiles embed.FS

// IndexHTML returns the upload page.
func IndexHTML() []byte {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		// The file is embedded at build time.
		panic(err)
	}
	return data
}

// IndexHandler serves the upload page.
func IndexHandler() http.Handler {
	page := IndexHTML()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	})
}
