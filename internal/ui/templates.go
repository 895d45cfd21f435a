package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"comma": func(v any) string {
		switch n := v.(type) {
		case int:
			return humanize.Comma(int64(n))
		case int64:
			return humanize.Comma(n)
		case uint64:
			return humanize.Comma(int64(n))
		}
		return fmt.Sprint(v)
	},
	"ordinal": humanize.Ordinal,
	"plural": func(n int, singular, plural string) string {
		return humanize.Comma(int64(n)) + " " + english.PluralWord(n, singular, plural)
	},
	"add": func(a, b int) int {
		return a + b
	},
	"sub": func(a, b int) int {
		return a - b
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	},
	"join": strings.Join,
}

// renderTemplate renders a template with the given data.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err = tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err = tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

// templates holds all template content.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="/" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">Cinedex</a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-6">
                        {{range .Kinds}}
                        <a href="/browse/{{.}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">{{.Title}}</a>
                        {{end}}
                        {{if .Session}}
                        <a href="/bookmarks" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Bookmarks</a>
                        {{end}}
                        {{if .IsAdmin}}
                        <a href="/admin/" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Admin</a>
                        {{end}}
                    </div>
                </div>
                <div class="flex items-center">
                    {{if .Session}}
                    <span class="text-sm text-gray-500 mr-4">{{.Session.Username}}</span>
                    <a href="/logout" class="text-sm text-gray-500 hover:text-gray-700">Sign out</a>
                    {{else}}
                    <a href="/login" class="text-sm text-indigo-600 hover:text-indigo-500">Sign in</a>
                    {{end}}
                </div>
            </div>
        </div>
    </nav>

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"login": `{{define "content"}}
<div class="flex items-center justify-center py-12 px-4">
    <div class="max-w-md w-full space-y-8">
        <h2 class="text-center text-3xl font-extrabold text-gray-900">Sign in to Cinedex</h2>
        {{if .Error}}
        <div class="rounded-md bg-red-50 p-4"><div class="text-sm text-red-700">{{.Error}}</div></div>
        {{end}}
        <form class="mt-8 space-y-6" action="/login" method="POST">
            <input type="hidden" name="next" value="{{.Next}}">
            <div class="rounded-md shadow-sm -space-y-px">
                <input id="username" name="username" type="text" required placeholder="Username"
                       class="appearance-none rounded-t-md relative block w-full px-3 py-2 border border-gray-300 sm:text-sm">
                <input id="password" name="password" type="password" required placeholder="Password"
                       class="appearance-none rounded-b-md relative block w-full px-3 py-2 border border-gray-300 sm:text-sm">
            </div>
            <button type="submit" class="w-full py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Sign in</button>
        </form>
    </div>
</div>
{{end}}`,

	"home": `{{define "content"}}
<div class="px-4 py-6 sm:px-0 space-y-10">
    <section>
        <div class="flex justify-between items-baseline mb-4">
            <h2 class="text-xl font-semibold text-gray-900">New movies</h2>
            <a href="/browse/movies" class="text-sm text-indigo-600">All movies</a>
        </div>
        {{template "cards" .Movies}}
    </section>
    <section>
        <div class="flex justify-between items-baseline mb-4">
            <h2 class="text-xl font-semibold text-gray-900">New series</h2>
            <a href="/browse/series" class="text-sm text-indigo-600">All series</a>
        </div>
        {{template "cards" .Series}}
    </section>
</div>
{{end}}`,

	"components/cards": `{{define "cards"}}
{{if .}}
<div class="grid grid-cols-2 gap-4 sm:grid-cols-3 lg:grid-cols-6">
    {{range .}}
    <a href="/{{.RecordKind}}/{{.RecordID}}" class="block bg-white shadow rounded-lg p-4 hover:bg-gray-50">
        <p class="text-sm font-medium text-gray-900">{{.Title}}</p>
        <p class="mt-1 text-xs text-gray-500">{{if .ReleaseYear}}{{.ReleaseYear}}{{end}}{{if .Rating}} · {{printf "%.1f" .Rating}}{{end}}</p>
    </a>
    {{end}}
</div>
{{else}}
<p class="text-sm text-gray-500">Nothing here yet.</p>
{{end}}
{{end}}`,

	"browse": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900 mb-4">{{.Kind.Title}}</h1>
    {{template "listcontrols" .}}
    {{template "table" .}}
    {{template "pager" .Pager}}
</div>
{{end}}`,

	"components/listcontrols": `{{define "listcontrols"}}
<form method="GET" action="{{.Base}}" class="flex flex-wrap gap-2 mb-4 items-center">
    <input type="search" name="search" value="{{.Query.FilterValue}}" placeholder="Search"
           class="px-3 py-1 border border-gray-300 rounded text-sm">
    <select name="{{printf "%sSortBy" .Kind}}" class="px-2 py-1 border border-gray-300 rounded text-sm">
        <option value="none"{{if not .Query.SortField}} selected{{end}}>Unsorted</option>
        {{$sort := .Query.SortField}}
        {{range .SortFields}}
        <option value="{{.}}"{{if eq . $sort}} selected{{end}}>{{.}}</option>
        {{end}}
    </select>
    <select name="{{printf "%sAscOrDesc" .Kind}}" class="px-2 py-1 border border-gray-300 rounded text-sm">
        <option value="asc"{{if ne (printf "%s" .Query.SortDirection) "desc"}} selected{{end}}>Ascending</option>
        <option value="desc"{{if eq (printf "%s" .Query.SortDirection) "desc"}} selected{{end}}>Descending</option>
    </select>
    <input type="hidden" name="pageSize" value="{{.Query.PageSize}}">
    <button type="submit" class="px-3 py-1 text-sm rounded bg-indigo-600 text-white">Apply</button>
    <span class="ml-auto text-sm text-gray-500">{{plural .Page.TotalCount "result" "results"}}</span>
</form>
{{end}}`,

	"components/table": `{{define "table"}}
<div class="bg-white shadow overflow-hidden sm:rounded-md">
    <table class="min-w-full divide-y divide-gray-200">
        <thead class="bg-gray-50">
            <tr>
                {{range .Headers}}
                <th class="px-4 py-2 text-left text-xs font-medium text-gray-500 uppercase">
                    {{if .URL}}<a href="{{.URL}}">{{.Label}}{{if .Active}}{{if .Desc}} ▼{{else}} ▲{{end}}{{end}}</a>{{else}}{{.Label}}{{end}}
                </th>
                {{end}}
                {{if .CanWrite}}<th></th>{{end}}
            </tr>
        </thead>
        <tbody class="divide-y divide-gray-200">
            {{$root := .}}
            {{range .Rows}}
            <tr class="hover:bg-gray-50">
                {{range .Cells}}
                <td class="px-4 py-2 text-sm text-gray-700">{{.}}</td>
                {{end}}
                {{if $root.CanWrite}}
                <td class="px-4 py-2 text-right">
                    <form method="POST" action="/admin/{{$root.Kind}}/{{.ID}}/delete" onsubmit="return confirm('Delete this record?')">
                        <button class="text-xs text-red-700">Delete</button>
                    </form>
                </td>
                {{else if .Link}}
                <td class="px-4 py-2 text-right"><a href="{{.Link}}" class="text-xs text-indigo-600">Details</a></td>
                {{end}}
            </tr>
            {{else}}
            <tr><td class="px-4 py-6 text-sm text-gray-500" colspan="{{len .Headers}}">No {{.Kind}} found.</td></tr>
            {{end}}
        </tbody>
    </table>
</div>
{{end}}`,

	"components/pager": `{{define "pager"}}
{{if gt .PageCount 1}}
<nav class="flex items-center justify-between mt-4 text-sm">
    <span class="text-gray-500">Page {{.Page}} of {{.PageCount}}</span>
    <div class="flex gap-1">
        {{if .First}}<a href="{{.First}}" class="px-2 py-1 border rounded">First</a>{{end}}
        {{if .Prev}}<a href="{{.Prev}}" class="px-2 py-1 border rounded">Prev</a>{{end}}
        {{range .Numbers}}
        {{if .Current}}<span class="px-2 py-1 border rounded bg-indigo-600 text-white">{{.Number}}</span>
        {{else}}<a href="{{.URL}}" class="px-2 py-1 border rounded">{{.Number}}</a>{{end}}
        {{end}}
        {{if .Next}}<a href="{{.Next}}" class="px-2 py-1 border rounded">Next</a>{{end}}
        {{if .Last}}<a href="{{.Last}}" class="px-2 py-1 border rounded">Last</a>{{end}}
    </div>
</nav>
{{end}}
{{end}}`,

	"detail": `{{define "content"}}
<div class="px-4 py-6 sm:px-0 space-y-8">
    <div class="bg-white shadow rounded-lg p-6">
        <div class="flex justify-between items-start">
            <div>
                <h1 class="text-2xl font-semibold text-gray-900">{{.Record.Title}}</h1>
                <p class="mt-1 text-sm text-gray-500">
                    {{if .Record.ReleaseYear}}{{.Record.ReleaseYear}}{{end}}
                    {{if eq .Kind "series"}}{{if .Record.EndYear}} to {{.Record.EndYear}}{{else}} to present{{end}}{{end}}
                    {{if eq .Kind "movies"}}{{if .Record.Duration}} · {{.Record.Duration}} min{{end}}{{end}}
                    {{if .Record.Genres}} · {{join .Record.Genres ", "}}{{end}}
                </p>
            </div>
            <div class="text-right">
                <p class="text-3xl font-bold text-indigo-600">{{if .Record.Rating}}{{printf "%.1f" .Record.Rating}}{{else}}-{{end}}</p>
                <p class="text-xs text-gray-500">{{plural .Reviews.TotalCount "review" "reviews"}}</p>
                {{if .Session}}
                <form method="POST" action="{{.Path}}/bookmark" class="mt-2">
                    <button class="text-xs px-2 py-1 border rounded">{{if .Bookmarked}}Remove bookmark{{else}}Bookmark{{end}}</button>
                </form>
                {{end}}
            </div>
        </div>
        {{if .Record.Description}}<p class="mt-4 text-gray-700">{{.Record.Description}}</p>{{end}}
    </div>

    <section>
        <h2 class="text-lg font-semibold text-gray-900 mb-3">Reviews</h2>
        {{if .CanReview}}
        <form method="POST" action="{{.Path}}/reviews" class="bg-white shadow rounded-lg p-4 mb-4 space-y-2">
            <label class="text-sm text-gray-700">Rating
                <select name="rating" class="ml-2 border rounded px-2 py-1 text-sm">
                    {{range $i := .RatingScale}}<option value="{{$i}}">{{$i}}</option>{{end}}
                </select>
            </label>
            <textarea name="body" rows="3" class="w-full border rounded p-2 text-sm" placeholder="What did you think?"></textarea>
            <button class="px-3 py-1 text-sm rounded bg-indigo-600 text-white">Post review</button>
        </form>
        {{else if not .Session}}
        <p class="text-sm text-gray-500 mb-4"><a href="/login?next={{.Path}}" class="text-indigo-600">Sign in</a> to write a review.</p>
        {{end}}

        {{$path := .Path}}{{$session := .Session}}
        {{range .Reviews.Items}}
        <div class="bg-white shadow rounded-lg p-4 mb-3">
            <div class="flex justify-between text-sm">
                <span class="font-medium text-gray-900">{{.UserName}} · {{.Rating}}/10</span>
                <span class="text-gray-500">{{ago .CreatedAt}}</span>
            </div>
            {{if .Body}}<p class="mt-2 text-sm text-gray-700">{{.Body}}</p>{{end}}
            <div class="mt-2 flex items-center gap-2 text-xs text-gray-500">
                <span>{{.Upvotes}} up · {{.Downvotes}} down</span>
                {{if $session}}
                <form method="POST" action="/reviews/{{.ID}}/vote"><input type="hidden" name="value" value="1"><input type="hidden" name="return" value="{{$path}}"><button>Helpful</button></form>
                <form method="POST" action="/reviews/{{.ID}}/vote"><input type="hidden" name="value" value="-1"><input type="hidden" name="return" value="{{$path}}"><button>Not helpful</button></form>
                {{end}}
            </div>
        </div>
        {{else}}
        <p class="text-sm text-gray-500">No reviews yet.</p>
        {{end}}
        {{if gt .Reviews.PageCount 1}}
        <p class="text-sm text-gray-500">
            {{if gt .Reviews.Page 1}}<a href="{{.Path}}?reviewsPage={{sub .Reviews.Page 1}}" class="text-indigo-600">Newer</a>{{end}}
            Page {{.Reviews.Page}} of {{.Reviews.PageCount}}
            {{if lt .Reviews.Page .Reviews.PageCount}}<a href="{{.Path}}?reviewsPage={{add .Reviews.Page 1}}" class="text-indigo-600">Older</a>{{end}}
        </p>
        {{end}}
    </section>
</div>
{{end}}`,

	"bookmarks": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900 mb-4">Bookmarks</h1>
    <ul class="bg-white shadow sm:rounded-md divide-y divide-gray-200">
        {{range .Bookmarks}}
        <li class="px-4 py-3 flex justify-between">
            <a href="/{{.MediaKind}}/{{.MediaID}}" class="text-sm font-medium text-indigo-600">{{.Title}}</a>
            <span class="text-xs text-gray-500">{{.MediaKind.Title}} · saved {{ago .CreatedAt}}</span>
        </li>
        {{else}}
        <li class="px-4 py-6 text-sm text-gray-500">No bookmarks yet.</li>
        {{end}}
    </ul>
</div>
{{end}}`,

	"admin/dashboard": `{{define "content"}}
<div class="px-4 py-6 sm:px-0 space-y-8">
    <div>
        <h1 class="text-2xl font-semibold text-gray-900">Administration</h1>
        <p class="mt-1 text-sm text-gray-500">Up {{.Uptime}} (since {{formatTime .Started}})</p>
        {{if .Flash}}<p class="mt-2 text-sm text-green-700">{{.Flash}}</p>{{end}}
    </div>

    <div class="grid grid-cols-2 gap-4 sm:grid-cols-4">
        {{range .Counts}}
        <a href="/admin/{{.Kind}}" class="bg-white shadow rounded-lg p-4 hover:bg-gray-50">
            <p class="text-sm text-gray-500">{{.Kind.Title}}</p>
            <p class="text-2xl font-semibold text-gray-900">{{comma .Total}}</p>
        </a>
        {{end}}
    </div>

    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-semibold text-gray-900 mb-3">Cache</h2>
        <dl class="grid grid-cols-2 gap-2 sm:grid-cols-4 text-sm">
            <dt class="text-gray-500">Backend</dt><dd>{{.Cache.Backend}}{{if .Cache.State}} ({{.Cache.State}}){{end}}</dd>
            <dt class="text-gray-500">Entries</dt><dd>{{comma .Cache.Entries}}</dd>
            <dt class="text-gray-500">Hits</dt><dd>{{comma .Cache.Hits}}</dd>
            <dt class="text-gray-500">Misses</dt><dd>{{comma .Cache.Misses}}</dd>
            <dt class="text-gray-500">Errors</dt><dd>{{comma .Cache.Errors}}</dd>
            <dt class="text-gray-500">Invalidations</dt><dd>{{comma .Cache.Invalidations}}</dd>
        </dl>
        <form method="POST" action="/admin/cache/invalidate" class="mt-4 flex gap-2">
            <select name="tag" class="border rounded px-2 py-1 text-sm">
                {{range .Counts}}<option value="{{.Kind}}">{{.Kind}}</option>{{end}}
                <option value="reviews">reviews</option>
            </select>
            <button class="px-3 py-1 text-sm rounded bg-red-600 text-white">Invalidate</button>
        </form>
    </div>
</div>
{{end}}`,

	"admin/grid": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="flex gap-3 mb-4 text-sm">
        <a href="/admin/" class="text-indigo-600">Dashboard</a>
        {{range .Kinds}}<a href="/admin/{{.}}" class="text-gray-600">{{.Title}}</a>{{end}}
    </div>
    <h1 class="text-2xl font-semibold text-gray-900 mb-4">{{.Kind.Title}}</h1>
    {{template "listcontrols" .}}
    {{template "table" .}}
    {{template "pager" .Pager}}
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="flex items-center justify-center py-24">
    <div class="text-center">
        <h1 class="text-4xl font-bold text-gray-900 mb-4">{{if .Status}}{{.Status}}{{else}}Error{{end}}</h1>
        <p class="text-gray-600 mb-8">{{.Message}}</p>
        <a href="/" class="text-indigo-600 hover:text-indigo-500">Return home</a>
    </div>
</div>
{{end}}`,
}
