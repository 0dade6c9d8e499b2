package disk

import (
	"math"
	"strconv"
	"strings"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// RangeAll is the limit value that requests the whole listing.
const RangeAll = "all"

// RangeSpec selects entries Start through End of an ordered listing,
// both zero-based and inclusive.
type RangeSpec struct {
	Start int
	End   int
}

// Empty reports whether the range selects nothing (Start > End).
func (r RangeSpec) Empty() bool {
	return r.Start > r.End
}

// Count is the number of entries the range spans, saturating at math.MaxInt.
func (r RangeSpec) Count() int {
	if r.Empty() {
		return 0
	}
	n := r.End - r.Start
	if n == math.MaxInt {
		return n
	}
	return n + 1
}

func (r RangeSpec) String() string {
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// ParseRange parses a limit parameter.
//
// "" and "all" select the whole listing and return nil. Otherwise limit must
// be exactly two non-negative decimal integers separated by "-". Start
// greater than End is accepted and selects nothing.
func ParseRange(limit string) (*RangeSpec, error) {
	limit = strings.TrimSpace(limit)
	if limit == "" || strings.EqualFold(limit, RangeAll) {
		return nil, nil
	}

	parts := strings.Split(limit, "-")
	if len(parts) != 2 {
		return nil, errorf(CodeInvalidRange, "limit", "range %q: want start-end", limit)
	}

	start, err := parseIndex(parts[0])
	if err != nil {
		return nil, errorf(CodeInvalidRange, "limit", "range %q: start: %v", limit, err)
	}
	end, err := parseIndex(parts[1])
	if err != nil {
		return nil, errorf(CodeInvalidRange, "limit", "range %q: end: %v", limit, err)
	}

	return &RangeSpec{Start: start, End: end}, nil
}

// parseIndex accepts only ASCII digits, so signs and spaces are rejected.
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// ParseOrdering parses the orderby and order parameters. Empty values
// select the default (name, ascending).
func ParseOrdering(orderBy, order string) (metadata.Ordering, error) {
	field, err := metadata.ParseOrderField(orderBy)
	if err != nil {
		return metadata.Ordering{}, newError(CodeInvalidOrdering, "orderby", err)
	}
	dir, err := metadata.ParseDirection(order)
	if err != nil {
		return metadata.Ordering{}, newError(CodeInvalidOrdering, "order", err)
	}
	return metadata.Ordering{Field: field, Direction: dir}, nil
}
