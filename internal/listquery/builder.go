package listquery

import (
	"fmt"
	"strings"

	"github.com/me/cinedex/pkg/model"
)

// likeEscape is the escape character used in LIKE patterns. It is accepted
// by SQLite, MySQL and PostgreSQL alike.
const likeEscape = "!"

// WhereBuilder collects AND-joined predicates and their arguments.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause appends a raw predicate with its placeholder arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddContains appends a case-insensitive substring match on column.
// An empty term adds nothing.
func (wb *WhereBuilder) AddContains(column, term string) *WhereBuilder {
	if term == "" {
		return wb
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return wb.AddClause(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '%s'", column, likeEscape), pattern)
}

// Build returns the joined predicate (without WHERE) and its arguments.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "", nil
	}
	return strings.Join(wb.clauses, " AND "), append([]any(nil), wb.args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// Query is a built list query for one entity kind. Placeholders are "?";
// the store rebinds them for its dialect.
type Query struct {
	Kind    model.EntityKind
	Table   string
	Columns []string
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// SelectSQL returns the page query and its arguments.
func (q Query) SelectSQL() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(q.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(q.Table)
	if q.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Where)
	}
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.OrderBy)
	}
	sb.WriteString(" LIMIT ? OFFSET ?")

	args := make([]any, 0, len(q.Args)+2)
	args = append(args, q.Args...)
	args = append(args, q.Limit, q.Offset)
	return sb.String(), args
}

// CountSQL returns the total-count query for the same predicate.
func (q Query) CountSQL() (string, []any) {
	query := "SELECT COUNT(*) FROM " + q.Table
	if q.Where != "" {
		query += " WHERE " + q.Where
	}
	return query, append([]any(nil), q.Args...)
}

// Builder maps descriptors to queries using a registry.
type Builder struct {
	registry *Registry
	limits   Limits
}

// NewBuilder creates a Builder over registry.
func NewBuilder(registry *Registry, limits Limits) *Builder {
	return &Builder{registry: registry, limits: limits.withDefaults()}
}

// Build produces the filter, order and window for desc. Ties on the sort
// column keep storage order; no secondary key is added. An unknown kind
// fails with *model.UnsupportedEntityError.
func (b *Builder) Build(desc model.QueryDescriptor) (Query, error) {
	e, err := b.registry.Lookup(desc.EntityKind)
	if err != nil {
		return Query{}, err
	}

	page, size := desc.Page, desc.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = b.limits.DefaultPageSize
	}
	if size > b.limits.MaxPageSize {
		size = b.limits.MaxPageSize
	}

	wb := NewWhereBuilder()
	wb.AddContains(e.FilterColumn(), desc.FilterValue)
	where, args := wb.Build()

	q := Query{
		Kind:    e.Kind(),
		Table:   e.Table(),
		Columns: e.Columns(),
		Where:   where,
		Args:    args,
		Limit:   size,
		Offset:  model.QueryDescriptor{Page: page, PageSize: size}.Offset(),
	}

	if desc.SortField != "" {
		col, ok := e.SortColumn(desc.SortField)
		if !ok {
			col, _ = e.SortColumn(e.DefaultSort())
		}
		dir := "ASC"
		if desc.SortDirection == model.SortDesc {
			dir = "DESC"
		}
		q.OrderBy = col + " " + dir
	}

	return q, nil
}
