// Command offer-ingest loads campaign offer codes from gzipped batch files.
//
// Each file holds one code per line. A code that shows up in more than one
// file cannot be attributed to a single batch and is skipped. Every other
// code becomes an offer built from the campaign template given by flags.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/repository"
)

const writeBatchSize = 1000

func main() {
	var (
		dataDir     string
		databaseURL string
		capacity    uint
		days        int
		template    = offer.Offer{Applicability: offer.AllItems(), Active: true}
		discountVal string
		minOrder    string
		maxDiscount string
		discountTyp string
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code batches")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&capacity, "bloom-capacity", 10_000_000, "expected codes per file")
	flag.StringVar(&template.Name, "name", "Campaign offer", "offer name")
	flag.StringVar(&template.Description, "description", "", "offer description")
	flag.StringVar(&discountTyp, "discount-type", string(offer.DiscountPercentage), "percentage or fixed")
	flag.StringVar(&discountVal, "discount-value", "10", "discount percentage or amount")
	flag.StringVar(&minOrder, "min-order", "0", "minimum order subtotal")
	flag.StringVar(&maxDiscount, "max-discount", "0", "cap for percentage discounts, 0 for none")
	flag.IntVar(&days, "days", 30, "validity in days starting now")
	flag.BoolVar(&dryRun, "dry-run", false, "scan files and report counts without writing")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	now := time.Now().UTC()
	template.DiscountType = offer.DiscountType(discountTyp)
	template.StartDate = now
	template.EndDate = now.AddDate(0, 0, days)
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
		name string
	}{
		{&template.DiscountValue, discountVal, "discount-value"},
		{&template.MinOrderValue, minOrder, "min-order"},
		{&template.MaxDiscount, maxDiscount, "max-discount"},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			lg.Fatal("Invalid flag", zap.String("flag", f.name), zap.Error(err))
		}
	}
	// Any code stands in for the template's own check.
	template.Code = "TEMPLATE"
	if err := offer.CheckConfig(&template); err != nil {
		lg.Fatal("Invalid campaign template", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, dataDir, databaseURL, capacity, template, dryRun); err != nil {
		lg.Fatal("Offer ingest failed", zap.Error(err))
	}
	lg.Info("Offer ingest completed")
}

func run(ctx context.Context, dataDir, databaseURL string, capacity uint, template offer.Offer, dryRun bool) error {
	lg := zctx.From(ctx)

	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list batch files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}
	slices.Sort(files)

	codes, err := uniqueCodes(ctx, files, capacity)
	if err != nil {
		return err
	}
	lg.Info("Scan complete", zap.Int("files", len(files)), zap.Int("codes", len(codes)))
	if dryRun {
		return nil
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeOffers(ctx, repository.NewOfferRepository(pool), codes, template)
}

type batchWriter interface {
	UpsertBatch(ctx context.Context, offers []offer.Offer) error
}

// writeOffers upserts one offer per code in batches.
func writeOffers(ctx context.Context, repo batchWriter, codes []string, template offer.Offer) error {
	lg := zctx.From(ctx)
	now := time.Now().UTC()

	batch := make([]offer.Offer, 0, writeBatchSize)
	written := 0
	flush := func() error {
		if err := repo.UpsertBatch(ctx, batch); err != nil {
			return errors.Wrapf(err, "write batch at %d", written)
		}
		written += len(batch)
		batch = batch[:0]
		lg.Info("Write progress", zap.Int("written", written), zap.Int("total", len(codes)))
		return nil
	}

	for _, code := range codes {
		o := template
		o.ID = uuid.New().String()
		o.Code = code
		o.CreatedAt = now
		batch = append(batch, o)
		if len(batch) == writeBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if len(batch) > 0 {
		return flush()
	}
	return nil
}
