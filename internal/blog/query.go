package blog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

const SortOrderAsc = "asc"

// Criteria describes a blogs list query. All fields are optional.
//   - Title: case-insensitive substring match
//   - Category: exact match
//   - SortField: one of sortFields; unknown or empty keeps the store order
//   - SortOrder: "asc" for ascending, anything else is descending
type Criteria struct {
	Title     string
	Category  Category
	SortField string
	SortOrder string
}

type sortField struct {
	column  string
	compare func(a, b *Blog) int
}

var sortFields = map[string]sortField{
	"id":       {column: "id", compare: func(a, b *Blog) int { return cmp.Compare(a.ID, b.ID) }},
	"author":   {column: "author", compare: func(a, b *Blog) int { return cmp.Compare(a.Author, b.Author) }},
	"title":    {column: "title", compare: func(a, b *Blog) int { return cmp.Compare(a.Title, b.Title) }},
	"content":  {column: "content", compare: func(a, b *Blog) int { return cmp.Compare(a.Content, b.Content) }},
	"category": {column: "category", compare: func(a, b *Blog) int { return cmp.Compare(a.Category, b.Category) }},
	"date":     {column: "created_at", compare: func(a, b *Blog) int { return a.Date.Compare(b.Date) }},
	"likes":    {column: "likes", compare: func(a, b *Blog) int { return cmp.Compare(a.Likes, b.Likes) }},
}

func init() {
	sortFields["created_at"] = sortFields["date"]
}

func (c Criteria) sortField() (sortField, bool) {
	if c.SortField == "" {
		return sortField{}, false
	}
	sf, ok := sortFields[strings.ToLower(c.SortField)]
	return sf, ok
}

func (c Criteria) ascending() bool {
	return c.SortOrder == SortOrderAsc
}

// Matches reports whether b satisfies the title and category filters.
func (c Criteria) Matches(b *Blog) bool {
	if c.Category != "" && b.Category != c.Category {
		return false
	}
	if c.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(c.Title)) {
		return false
	}
	return true
}

// Sort orders blogs in place according to SortField and SortOrder.
// Without a known sort field the given order is left as is.
func (c Criteria) Sort(blogs []*Blog) {
	sf, ok := c.sortField()
	if !ok {
		return
	}
	asc := c.ascending()
	slices.SortStableFunc(blogs, func(a, b *Blog) int {
		if asc {
			return sf.compare(a, b)
		}
		return sf.compare(b, a)
	})
}

// Filter returns the matching blogs, sorted.
func (c Criteria) Filter(blogs []*Blog) []*Blog {
	matching := make([]*Blog, 0, len(blogs))
	for _, b := range blogs {
		if c.Matches(b) {
			matching = append(matching, b)
		}
	}
	c.Sort(matching)
	return matching
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// sqlWhere builds the WHERE clause (with a leading space, or empty) and its args.
func (c Criteria) sqlWhere() (string, []any) {
	var conditions []string
	var args []any

	if c.Title != "" {
		args = append(args, likeEscaper.Replace(c.Title))
		conditions = append(conditions, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if c.Category != "" {
		args = append(args, string(c.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// sqlOrderBy returns the ORDER BY clause (with a leading space), or empty.
// Column names only ever come from sortFields.
func (c Criteria) sqlOrderBy() string {
	sf, ok := c.sortField()
	if !ok {
		return ""
	}
	direction := "DESC"
	if c.ascending() {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", sf.column, direction)
}
