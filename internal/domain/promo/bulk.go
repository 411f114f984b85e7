package promo

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bulk code files are gzipped, newline-delimited, one code per line. Codes
// shorter than minBulkCodeLen are skipped as noise.
const minBulkCodeLen = 4

// LoadBulkFilter reads every gzipped code file into a single Bloom filter
// sized for capacity entries at the given false-positive rate. Files are
// decompressed and scanned concurrently.
func LoadBulkFilter(ctx context.Context, paths []string, capacity uint, fpr float64) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(capacity, fpr)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			n, err := loadBulkFile(ctx, path, filter, &mu)
			if err != nil {
				return errors.Wrapf(err, "load bulk codes from %s", path)
			}
			zctx.From(ctx).Info("Loaded bulk promo codes",
				zap.String("path", path),
				zap.Int("codes", n),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filter, nil
}

func loadBulkFile(ctx context.Context, path string, filter *bloom.BloomFilter, mu *sync.Mutex) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	count := 0
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if len(code) < minBulkCodeLen {
			continue
		}
		mu.Lock()
		filter.AddString(code)
		mu.Unlock()
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, errors.Wrap(err, "scan")
	}
	return count, nil
}
