package httpapi

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	logx "chefplan/pkg/logx"
)

//go:embed web
var webFS embed.FS

var (
	indexTmpl = template.Must(template.ParseFS(webFS, "web/index.html"))
	staticFS  = mustSub(webFS, "web/static")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type indexRecipe struct {
	Index int
	Name  string
	Steps int
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	all := a.catalog.List(r.Context())
	data := struct {
		Recipes []indexRecipe
	}{Recipes: make([]indexRecipe, len(all))}
	for i, rec := range all {
		data.Recipes[i] = indexRecipe{Index: i, Name: rec.Name, Steps: len(rec.Steps)}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		a.log.Warn("render index failed", logx.String("request_id", RequestID(r.Context())), logx.Err(err))
	}
}
