package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PageSize is the number of table rows per page.
const PageSize = 15

// SortDirection orders the table.
type SortDirection string

// Sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection validates a direction name.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(s)); d {
	case Ascending, Descending:
		return d, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Ascending {
		return Descending
	}

	return Ascending
}

// ViewState is the table sort and pagination state.
type ViewState struct {
	SortKey   Field         `json:"sort_key" yaml:"sort_key"`
	Direction SortDirection `json:"sort_dir" yaml:"sort_dir"`
	Page      int           `json:"page" yaml:"page"`
}

// DefaultViewState sorts by count, highest first, on page 1.
func DefaultViewState() ViewState {
	return ViewState{SortKey: FieldCount, Direction: Descending, Page: 1}
}

// Search keeps records whose server name contains query case-insensitively
// or whose IP contains it. An empty query keeps everything.
func Search(records []Record, query string) []Record {
	if query == "" {
		return records
	}

	q := strings.ToLower(query)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ServerName), q) || strings.Contains(r.IP, q) {
			out = append(out, r)
		}
	}

	return out
}

// sortValue is the extracted comparison key of one record.
type sortValue struct {
	str     string
	num     float64
	numeric bool
}

func extract(r Record, key Field) sortValue {
	switch key {
	case FieldAddress:
		return sortValue{str: r.Address()}
	case FieldPlayers:
		return sortValue{num: float64(r.Players), numeric: true}
	case FieldCount:
		return sortValue{num: float64(r.Count), numeric: true}
	case FieldFirstSeen:
		return sortValue{num: float64(r.FirstSeen.Millis()), numeric: true}
	case FieldLastSeen:
		return sortValue{num: float64(r.LastSeen.Millis()), numeric: true}
	default:
		return sortValue{str: strings.ToLower(r.Raw(key))}
	}
}

func compare(a, b sortValue) int {
	if a.numeric && b.numeric {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(a.str, b.str)
}

// Sort returns a stably sorted copy of records.
func Sort(records []Record, key Field, dir SortDirection) []Record {
	sign := 1
	if dir == Descending {
		sign = -1
	}

	keys := make([]sortValue, len(records))
	idx := make([]int, len(records))
	for i, r := range records {
		keys[i] = extract(r, key)
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		return compare(keys[idx[i]], keys[idx[j]])*sign < 0
	})

	out := make([]Record, len(records))
	for i, k := range idx {
		out[i] = records[k]
	}

	return out
}

// Row is one rendered table line.
type Row struct {
	Record    Record `json:"record" yaml:"record"`
	Number    int    `json:"number" yaml:"number"`
	Address   string `json:"address" yaml:"address"`
	FirstSeen string `json:"first_seen" yaml:"first_seen"`
	LastSeen  string `json:"last_seen" yaml:"last_seen"`
}

// Page is the visible slice of the table plus pagination metadata.
type Page struct {
	Rows       []Row `json:"rows" yaml:"rows"`
	Page       int   `json:"page" yaml:"page"`
	Pages      int   `json:"pages" yaml:"pages"`
	TotalItems int   `json:"total_items" yaml:"total_items"`
	RangeStart int   `json:"range_start" yaml:"range_start"`
	RangeEnd   int   `json:"range_end" yaml:"range_end"`
	HasPrev    bool  `json:"has_prev" yaml:"has_prev"`
	HasNext    bool  `json:"has_next" yaml:"has_next"`
}

// Info is the pagination caption.
func (p Page) Info() string {
	return fmt.Sprintf("Showing %d-%d of %d", p.RangeStart, p.RangeEnd, p.TotalItems)
}

// PageCount returns the number of pages needed for total rows.
func PageCount(total int) int {
	return (total + PageSize - 1) / PageSize
}

// Paginate cuts page number page (1-based) out of records.
func Paginate(records []Record, page int, loc *time.Location) Page {
	if page < 1 {
		page = 1
	}

	total := len(records)
	start := (page - 1) * PageSize
	end := start + PageSize

	lo, hi := min(start, total), min(end, total)
	rows := make([]Row, 0, hi-lo)
	for i, r := range records[lo:hi] {
		rows = append(rows, Row{
			Record:    r,
			Number:    start + i + 1,
			Address:   r.Address(),
			FirstSeen: r.FirstSeen.Format(loc),
			LastSeen:  r.LastSeen.Format(loc),
		})
	}

	rangeStart, rangeEnd := 0, 0
	if len(rows) > 0 {
		rangeStart, rangeEnd = start+1, hi
	}

	return Page{
		Rows:       rows,
		Page:       page,
		Pages:      PageCount(total),
		TotalItems: total,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		HasPrev:    page > 1,
		HasNext:    end < total,
	}
}

// Table runs search, sort and pagination over the filtered set.
func Table(filtered []Record, query string, view ViewState, loc *time.Location) Page {
	rows := Search(filtered, query)
	if view.SortKey != "" {
		rows = Sort(rows, view.SortKey, view.Direction)
	}

	return Paginate(rows, view.Page, loc)
}
