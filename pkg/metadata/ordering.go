package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// OrderField selects the attribute a listing is sorted by.
type OrderField string

const (
	OrderByName     OrderField = "name"
	OrderBySize     OrderField = "size"
	OrderByCreated  OrderField = "created"
	OrderByModified OrderField = "modified"
)

// Direction is the sort direction of a listing.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Ordering is a listing sort specification.
//
// Entries that compare equal on Field are ordered by ID ascending regardless
// of Direction, so repeated queries return the same sequence.
type Ordering struct {
	Field     OrderField
	Direction Direction
}

// DefaultOrdering sorts by name, ascending.
var DefaultOrdering = Ordering{Field: OrderByName, Direction: Ascending}

// ParseOrderField maps a user supplied field name to an OrderField.
// The empty string yields the default field.
func ParseOrderField(s string) (OrderField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultOrdering.Field, nil
	case "name", "filename":
		return OrderByName, nil
	case "size", "filesize":
		return OrderBySize, nil
	case "created", "create_time", "createdat":
		return OrderByCreated, nil
	case "modified", "modified_time", "modifiedat":
		return OrderByModified, nil
	default:
		return "", fmt.Errorf("unknown order field %q", s)
	}
}

// ParseDirection maps a user supplied direction to a Direction.
// The empty string yields ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown order direction %q", s)
	}
}

// Validate reports whether o names a known field and direction.
func (o Ordering) Validate() error {
	switch o.Field {
	case OrderByName, OrderBySize, OrderByCreated, OrderByModified:
	default:
		return fmt.Errorf("unknown order field %q", o.Field)
	}
	switch o.Direction {
	case Ascending, Descending:
	default:
		return fmt.Errorf("unknown order direction %q", o.Direction)
	}
	return nil
}

// Less reports whether a sorts before b under o, including the ID tie-break.
func (o Ordering) Less(a, b *FileEntry) bool {
	c := o.compare(a, b)
	if o.Direction == Descending {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func (o Ordering) compare(a, b *FileEntry) int {
	switch o.Field {
	case OrderBySize:
		return cmpInt64(a.Size, b.Size)
	case OrderByCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	case OrderByModified:
		return a.ModifiedAt.Compare(b.ModifiedAt)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortEntries sorts entries in place according to o.
func SortEntries(entries []*FileEntry, o Ordering) {
	sort.SliceStable(entries, func(i, j int) bool {
		return o.Less(entries[i], entries[j])
	})
}

// Window returns entries[offset : offset+count], clamped to the slice bounds.
// An offset past the end, or a non-positive count, yields an empty slice.
func Window(entries []*FileEntry, offset, count int) []*FileEntry {
	if offset < 0 || count <= 0 || offset >= len(entries) {
		return []*FileEntry{}
	}
	end := offset + count
	if end > len(entries) || end < offset {
		end = len(entries)
	}
	return entries[offset:end]
}
