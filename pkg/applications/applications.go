package applications

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Application is one submitted insurance application.
type Application struct {
	ID          string
	FormID      string
	Title       string
	SubmittedAt time.Time
	Answers     map[string]any
}

// Built-in column names. Any other column name is looked up in Answers.
const (
	ColumnID          = "id"
	ColumnFormID      = "form_id"
	ColumnTitle       = "title"
	ColumnSubmittedAt = "submitted_at"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListRequest selects columns, ordering and a page of submitted applications.
type ListRequest struct {
	Columns    []string
	SortBy     string
	Descending bool
	Page       int
	PageSize   int
}

// ListView is the table-shaped projection consumed by renderers.
type ListView struct {
	Columns  []string
	Rows     [][]string
	Total    int
	Page     int
	PageSize int
	Pages    int
}

// DefaultColumns returns the columns used when a request names none.
func DefaultColumns() []string {
	return []string{ColumnID, ColumnFormID, ColumnSubmittedAt}
}

// BuildListView projects apps into a sorted, paginated table. Unknown sort
// columns leave the submission order untouched. Pages are 1-based; an
// out-of-range page yields an empty row set with pagination metadata intact.
func BuildListView(apps []Application, req ListRequest) ListView {
	columns := req.Columns
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	columns = append([]string{}, columns...)

	ordered := append([]Application{}, apps...)
	if req.SortBy != "" {
		sortApplications(ordered, req.SortBy, req.Descending)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	total := len(ordered)
	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	rows := make([][]string, 0, end-start)
	for _, app := range ordered[start:end] {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellValue(app, col)
		}
		rows = append(rows, row)
	}

	return ListView{
		Columns:  columns,
		Rows:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}
}

func sortApplications(apps []Application, column string, descending bool) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := sortKey(apps[i], column), sortKey(apps[j], column)
		if descending {
			return a > b
		}
		return a < b
	})
}

// sortKey formats timestamps as RFC3339 so lexical order matches
// chronological order.
func sortKey(app Application, column string) string {
	return cellValue(app, column)
}

func cellValue(app Application, column string) string {
	switch strings.ToLower(strings.TrimSpace(column)) {
	case ColumnID:
		return app.ID
	case ColumnFormID:
		return app.FormID
	case ColumnTitle:
		return app.Title
	case ColumnSubmittedAt:
		if app.SubmittedAt.IsZero() {
			return ""
		}
		return app.SubmittedAt.UTC().Format(time.RFC3339)
	default:
		return formatAnswer(app.Answers[column])
	}
}

func formatAnswer(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatAnswer(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
