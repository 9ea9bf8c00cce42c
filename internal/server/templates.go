package server

import "html/template"

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.}}</title>
</head>
<body>
{{end}}

{{define "foot"}}</body>
</html>
{{end}}

{{define "home"}}{{template "head" "Posts"}}<main>
<h1>Posts</h1>
<ul>
{{range .Posts}}<li><a href="/posts/{{.Slug}}">{{.Title}}</a> <small>{{.Date}} · {{.Category}} · {{.ReadTime}}</small>
<p>{{.Excerpt}}</p></li>
{{end}}</ul>
</main>
{{template "foot"}}{{end}}

{{define "page"}}{{template "head" .Title}}<article>
<h1>{{.Title}}</h1>
<p><small>{{.Date}} · {{.Category}} · {{.ReadTime}}</small></p>
{{.Content}}</article>
<p><a href="/">Back to posts</a></p>
{{template "foot"}}{{end}}

{{define "error"}}{{template "head" "Error"}}<main>
<p class="error">{{.Message}}</p>
<p><a href="/">Back to posts</a></p>
</main>
{{template "foot"}}{{end}}
`))
