package site

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"gallery", "detail", "about", "notfound"}

// pages holds one template set per page, each parsed together with the layout
type pages map[string]*template.Template

func parsePages() (pages, error) {
	out := make(pages, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

// StaticFS exposes the embedded stylesheet and viewer script
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Features lists the viewer capabilities shown on every detail page
var Features = []string{
	"Rotate the model by dragging with your mouse or swiping on touch devices",
	"Zoom in or out using the scroll wheel or the toolbar buttons",
	"Switch between front view and the default angle, or reset everything",
	"Adjust lighting and environment settings for optimal viewing",
	"Enter fullscreen mode for immersive experience",
}

type basePage struct {
	Title  string
	Active string
}

type galleryPage struct {
	basePage
	Hero   *cardView
	Models []cardView
}

type detailPage struct {
	basePage
	Model         *modelView
	Related       []cardView
	QRCode        template.URL
	QRSize        int
	QRDownloadURL string
	PageURL       string
	Features      []string
}

type aboutPage struct {
	basePage
	ModelCount int
}

type notFoundPage struct {
	basePage
	Path string
}

type cardView struct {
	Slug         string
	Title        string
	Description  string
	Category     string
	Location     string
	PageURL      string
	ThumbnailURL string
}

type modelView struct {
	cardView
	AssetURL string
}
