package admin

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/Station-Manager/orderdebug"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTemplate = "index.html"

type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *pageRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type categoryView struct {
	Key     string
	Label   string
	Enabled bool
}

type pageView struct {
	Notice     string
	Active     bool
	Categories []categoryView
	Actions    string
	Filters    string
	Log        string
}

func newPageView(settings orderdebug.Settings, active bool, log, notice string) pageView {
	view := pageView{
		Notice:  notice,
		Active:  active,
		Actions: strings.Join(settings.Actions, "\n"),
		Filters: strings.Join(settings.Filters, "\n"),
		Log:     log,
	}
	for _, c := range orderdebug.Categories() {
		view.Categories = append(view.Categories, categoryView{
			Key:     c.OptionKey(),
			Label:   c.Label(),
			Enabled: settings.Enabled(c),
		})
	}
	return view
}

var notices = map[string]string{
	"updated": "Settings saved.",
	"cleared": "Debug log cleared.",
}
