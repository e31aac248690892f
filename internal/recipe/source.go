package recipe

import (
	"context"
	"fmt"

	"github.com/goplus/xsltpkg/internal/fetch"
)

// Source downloads the source archive into the work dir, extracts it and
// removes the archive. There is no retry.
func (r *Recipe) Source(ctx context.Context) error {
	f := r.Fetcher
	if f == nil {
		f = fetch.New(r.logger())
	}
	if err := f.Fetch(ctx, r.url(), r.Project.WorkDir, r.SHA256); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}
