package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticContent embed.FS

func staticFiles() http.Handler {
	sub, err := fs.Sub(staticContent, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Academy student management\n\nPOST "+a.loginPath+" to obtain a token.\n")
}

func (a *API) handleCourses(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Courses\n")
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
