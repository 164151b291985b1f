// Package templates renders HTML email bodies with html/template.
//
// Templates are loaded from an fs.FS, usually embedded next to the code that
// sends them. One file defines the "layout" template; each email defines its
// body as a named block and the layout pulls it in with {{template "content" .}}:
//
//	{{define "layout"}}<html><body>{{template "content" .}}</body></html>{{end}}
//	{{define "welcome"}}<p>Hi {{.Name}}, welcome aboard.</p>{{end}}
//
//	//go:embed emails/*.html
//	var emailFS embed.FS
//
//	r, err := templates.New(emailFS, "emails/*.html")
//	html, err := r.Render("welcome", data)
//
// The "title" and "upper" functions are available in every template.
package templates
