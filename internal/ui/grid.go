package ui

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/me/cinedex/pkg/model"
)

// gridColumn is one column of a browse or admin table.
type gridColumn struct {
	Header string
	// Sort is the sort field the header links to; empty if not sortable.
	Sort  string
	value func(model.Record) string
}

// gridRow is a rendered table row.
type gridRow struct {
	ID    string
	Link  string
	Cells []string
}

func year(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func minutes(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n) + " min"
}

func score(f float64) string {
	if f == 0 {
		return "-"
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func added(r model.Record) string {
	return humanize.Time(r.Metadata().CreatedAt)
}

var gridColumns = map[model.EntityKind][]gridColumn{
	model.KindMovies: {
		{"Title", "title", func(r model.Record) string { return r.(*model.Movie).Title }},
		{"Year", "releaseYear", func(r model.Record) string { return year(r.(*model.Movie).ReleaseYear) }},
		{"Rating", "rating", func(r model.Record) string { return score(r.(*model.Movie).Rating) }},
		{"Duration", "duration", func(r model.Record) string { return minutes(r.(*model.Movie).Duration) }},
		{"Genres", "", func(r model.Record) string { return strings.Join(r.(*model.Movie).Genres, ", ") }},
		{"Added", "createdAt", added},
	},
	model.KindSeries: {
		{"Title", "title", func(r model.Record) string { return r.(*model.Series).Title }},
		{"Started", "releaseYear", func(r model.Record) string { return year(r.(*model.Series).ReleaseYear) }},
		{"Ended", "endYear", func(r model.Record) string { return year(r.(*model.Series).EndYear) }},
		{"Rating", "rating", func(r model.Record) string { return score(r.(*model.Series).Rating) }},
		{"Added", "createdAt", added},
	},
	model.KindSeasons: {
		{"Title", "title", func(r model.Record) string { return r.(*model.Season).Title }},
		{"Season", "seasonNumber", func(r model.Record) string { return humanize.Ordinal(r.(*model.Season).SeasonNumber) }},
		{"Year", "releaseYear", func(r model.Record) string { return year(r.(*model.Season).ReleaseYear) }},
		{"Series", "", func(r model.Record) string { return r.(*model.Season).SeriesID }},
		{"Added", "createdAt", added},
	},
	model.KindEpisodes: {
		{"Title", "title", func(r model.Record) string { return r.(*model.Episode).Title }},
		{"Episode", "episodeNumber", func(r model.Record) string { return strconv.Itoa(r.(*model.Episode).EpisodeNumber) }},
		{"Duration", "duration", func(r model.Record) string { return minutes(r.(*model.Episode).Duration) }},
		{"Aired", "airDate", func(r model.Record) string { return orDash(r.(*model.Episode).AirDate) }},
		{"Added", "createdAt", added},
	},
	model.KindActors: {
		{"Name", "fullname", func(r model.Record) string { return r.(*model.Actor).Fullname }},
		{"Born", "birthday", func(r model.Record) string { return orDash(r.(*model.Actor).Birthday) }},
		{"Nationality", "nationality", func(r model.Record) string { return orDash(r.(*model.Actor).Nationality) }},
		{"Added", "createdAt", added},
	},
	model.KindCrew: {
		{"Name", "fullname", func(r model.Record) string { return r.(*model.Crew).Fullname }},
		{"Role", "role", func(r model.Record) string { return orDash(r.(*model.Crew).Role) }},
		{"Born", "birthday", func(r model.Record) string { return orDash(r.(*model.Crew).Birthday) }},
		{"Added", "createdAt", added},
	},
	model.KindGenres: {
		{"Name", "name", func(r model.Record) string { return r.(*model.Genre).Name }},
		{"Added", "createdAt", added},
	},
	model.KindUsers: {
		{"User", "userName", func(r model.Record) string { return r.(*model.User).UserName }},
		{"Email", "email", func(r model.Record) string { return orDash(r.(*model.User).Email) }},
		{"Role", "role", func(r model.Record) string { return string(r.(*model.User).Role) }},
		{"Joined", "createdAt", added},
	},
}

// buildRows renders the items of page into table rows.
func buildRows(page *model.ListPage) []gridRow {
	cols := gridColumns[page.Kind]
	rows := make([]gridRow, 0, len(page.Records))
	for _, rec := range page.Records {
		row := gridRow{ID: rec.RecordID(), Cells: make([]string, len(cols))}
		if page.Kind.IsMedia() {
			row.Link = "/" + string(page.Kind) + "/" + rec.RecordID()
		}
		for i, c := range cols {
			row.Cells[i] = c.value(rec)
		}
		rows = append(rows, row)
	}
	return rows
}
