package disk

import (
	"context"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// Lister answers ordered, range-limited directory listings from the
// metadata repository. It never mutates state.
type Lister struct {
	repo metadata.Repository
}

func NewLister(repo metadata.Repository) *Lister {
	return &Lister{repo: repo}
}

// List returns the entries directly inside logicalPath owned by owner.
//
// A nil ordering means name ascending and a nil rng means the whole
// listing. The range is applied after ordering; a range starting past the
// end of the listing yields an empty slice. The caller is responsible for
// checking that logicalPath is an existing directory.
func (l *Lister) List(ctx context.Context, owner, logicalPath string, ordering *metadata.Ordering, rng *RangeSpec) ([]*metadata.FileEntry, error) {
	o := metadata.DefaultOrdering
	if ordering != nil {
		o = *ordering
	}
	if err := o.Validate(); err != nil {
		return nil, newError(CodeInvalidOrdering, "orderby", err)
	}
	if rng != nil && rng.Start < 0 {
		return nil, errorf(CodeInvalidRange, "limit", "range %s: negative start", rng)
	}

	dir := metadata.CleanDir(logicalPath)

	var (
		entries []*metadata.FileEntry
		err     error
	)
	switch {
	case rng == nil:
		entries, err = l.repo.QueryAll(ctx, owner, dir, o)
	case rng.Empty():
		return []*metadata.FileEntry{}, nil
	default:
		entries, err = l.repo.QuerySlice(ctx, owner, dir, o, rng.Start, rng.Count())
	}
	if err != nil {
		return nil, newError(CodeRepositoryFailure, "", err)
	}

	if entries == nil {
		entries = []*metadata.FileEntry{}
	}
	return entries, nil
}
