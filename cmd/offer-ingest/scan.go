package main

import (
	"bufio"
	"context"
	"math/bits"
	"os"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

const (
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 4
	maxCodeLen    = 32
	// File membership is tracked in a uint64 bitmask.
	maxFiles = 64
)

// fileScan is what pass 2 learns about one file.
type fileScan struct {
	// unique codes are absent from every other file's filter.
	unique map[string]struct{}
	// suspects matched another file's filter; they may be false positives.
	suspects map[string]struct{}
}

// uniqueCodes returns, sorted, the normalized codes that occur in exactly
// one of files.
//
// Pass 1 builds a bloom filter per file. Pass 2 re-reads each file: a code
// missing from all other filters is certainly unique to its file. Codes that
// hit another filter are confirmed by counting the files that reported them.
func uniqueCodes(ctx context.Context, files []string, capacity uint) ([]string, error) {
	if len(files) > maxFiles {
		return nil, errors.Errorf("at most %d files are supported, got %d", maxFiles, len(files))
	}

	filters, err := buildFilters(ctx, files, capacity)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}
	scans, err := scanFiles(ctx, files, filters)
	if err != nil {
		return nil, errors.Wrap(err, "scan files")
	}

	seen := make(map[string]uint64)
	for i, s := range scans {
		for code := range s.suspects {
			seen[code] |= 1 << uint(i)
		}
	}

	var out []string
	for _, s := range scans {
		for code := range s.unique {
			out = append(out, code)
		}
	}
	dropped := 0
	for code, mask := range seen {
		if bits.OnesCount64(mask) == 1 {
			out = append(out, code)
		} else {
			dropped++
		}
	}
	zctx.From(ctx).Info("Dropped codes present in several files", zap.Int("codes", dropped))

	slices.Sort(out)
	return out, nil
}

func buildFilters(ctx context.Context, files []string, capacity uint) ([]*bloom.BloomFilter, error) {
	lg := zctx.From(ctx)
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(capacity, bloomFPR)
			var count uint64
			err := streamCodes(ctx, path, func(code string) {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					lg.Info("Pass 1 progress", zap.String("file", path), zap.Uint64("codes", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			lg.Info("Pass 1 complete", zap.String("file", path), zap.Uint64("codes", count))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func scanFiles(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]fileScan, error) {
	lg := zctx.From(ctx)
	scans := make([]fileScan, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			s := fileScan{unique: map[string]struct{}{}, suspects: map[string]struct{}{}}
			err := streamCodes(ctx, path, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						s.suspects[code] = struct{}{}
						return
					}
				}
				s.unique[code] = struct{}{}
			})
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			lg.Info("Pass 2 complete",
				zap.String("file", path),
				zap.Int("unique", len(s.unique)),
				zap.Int("suspects", len(s.suspects)),
			)
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scans, nil
}

// streamCodes calls fn for every well-formed code in a gzipped file. Codes
// are normalized the same way customers' input is.
func streamCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := offer.NormalizeCode(scanner.Text())
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
