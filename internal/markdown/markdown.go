// Package markdown renders mojified texts into a side-by-side HTML page.
// The texts are treated as Markdown, so their inline <h1>, <b> and <i> tags
// pass through.
package markdown

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// delimiter is the inline paragraph token of the source texts.
const delimiter = "<delimiter>"

func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

type Column struct {
	Lang string
	Text string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: serif; margin: 0; }
h1.title { text-align: center; }
.columns { display: flex; gap: 2em; padding: 0 2em; }
.column { flex: 1; line-height: 1.5; }
.lang { color: #888; font-family: monospace; }
</style>
</head>
<body>
<h1 class="title">{{.Title}}</h1>
<div class="columns">
{{range .Columns}}<div class="column" lang="{{.Lang}}">
<div class="lang">{{.Lang}}</div>
{{.HTML}}
</div>
{{end}}</div>
</body>
</html>
`))

// SideBySide renders the columns next to each other. Inline delimiter
// tokens become paragraph breaks.
func SideBySide(title string, columns ...Column) (string, error) {
	type rendered struct {
		Lang string
		HTML template.HTML
	}
	data := struct {
		Title   string
		Columns []rendered
	}{Title: title}

	for _, c := range columns {
		text := strings.ReplaceAll(c.Text, delimiter, "\n\n")
		data.Columns = append(data.Columns, rendered{
			Lang: c.Lang,
			HTML: template.HTML(ToHTML([]byte(text))),
		})
	}

	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return sb.String(), nil
}
