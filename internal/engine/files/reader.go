package files

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"chakrals/internal/core/errors"
	"chakrals/internal/shared/observability"
	"chakrals/internal/shared/uri"
	"chakrals/internal/shared/util"
)

const defaultReadConcurrency = 8

type ReadSuccess struct {
	URI     string
	Content []byte
}

type ReadFailure struct {
	URI string
	Err error
}

// BatchResult partitions a batch read. Each input URI lands in exactly
// one partition, and partitions preserve the input order so callers can
// zip results back to their originating events.
type BatchResult struct {
	Successes []ReadSuccess
	Failures  []ReadFailure
}

// Reader loads document contents from disk. Reads within a batch are
// independent: one failure never aborts sibling reads.
type Reader struct {
	limiter     *util.Limiter
	maxFileSize int64
	concurrency int
}

func NewReader(limiter *util.Limiter, maxFileSize int64) *Reader {
	return &Reader{
		limiter:     limiter,
		maxFileSize: maxFileSize,
		concurrency: defaultReadConcurrency,
	}
}

// ReadAll loads every URI in the batch. The returned error is only ever
// a context error; per-file failures are reported in the result.
func (r *Reader) ReadAll(ctx context.Context, uris []string) (BatchResult, error) {
	type outcome struct {
		content []byte
		err     error
	}
	outcomes := make([]outcome, len(uris))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, u := range uris {
		g.Go(func() error {
			content, err := r.ReadFile(gctx, u)
			outcomes[i] = outcome{content: content, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for i, u := range uris {
		if outcomes[i].err != nil {
			observability.BatchReadFailuresTotal.Inc()
			res.Failures = append(res.Failures, ReadFailure{URI: u, Err: outcomes[i].err})
			continue
		}
		res.Successes = append(res.Successes, ReadSuccess{URI: u, Content: outcomes[i].content})
	}
	return res, nil
}

// ReadFile loads a single URI, honoring the rate limiter and size cap.
func (r *Reader) ReadFile(ctx context.Context, docURI string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "read rate limit wait")
	}

	path, err := uri.ToPath(docURI)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotSupported, "resolve uri")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "stat file")
	}
	if r.maxFileSize > 0 && info.Size() > r.maxFileSize {
		return nil, errors.New(errors.CodeIOError,
			fmt.Sprintf("file exceeds size limit (%d > %d bytes)", info.Size(), r.maxFileSize))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "read file")
	}
	return content, nil
}
