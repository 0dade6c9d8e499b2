package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.tmpl.html
var templateFS embed.FS

var (
	tmplOnce sync.Once
	tmpl     *template.Template
)

// listPage is the data of the HTML listing.
type listPage struct {
	disk.ViewModel
	Token string
}

func getTemplate() *template.Template {
	tmplOnce.Do(func() {
		funcs := template.FuncMap{
			"humanizeSize": func(n int64) string { return humanize.IBytes(uint64(n)) },
			"humanizeTime": func(t time.Time) string { return humanize.Time(t) },
			"joinPath":     func(dir, name string) string { return path.Join(dir, name) },
			"escape":       url.PathEscape,
		}
		tmpl = template.Must(template.New("files").
			Funcs(funcs).
			ParseFS(templateFS, "templates/files.tmpl.html"))
	})
	return tmpl
}

func render(w http.ResponseWriter, status int, data any) error {
	ts := getTemplate()
	b := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(b, "files.tmpl.html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := b.WriteTo(w); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
