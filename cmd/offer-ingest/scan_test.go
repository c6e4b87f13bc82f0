package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestUniqueCodes(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "batch1.gz", "SUMMER10", "shared01", "ONLYONE1", "onlyone1", "x"),
		writeGz(t, dir, "batch2.gz", "SHARED01", "monsoon5", " padded9 "),
		writeGz(t, dir, "batch3.gz", "WINTER20", "Shared01"),
	}

	codes, err := uniqueCodes(t.Context(), files, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"MONSOON5", "ONLYONE1", "PADDED9", "SUMMER10", "WINTER20"}, codes)
}

func TestUniqueCodes_MissingFile(t *testing.T) {
	_, err := uniqueCodes(t.Context(), []string{filepath.Join(t.TempDir(), "nope.gz")}, 10)
	require.Error(t, err)
}

func TestUniqueCodes_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeGz(t, dir, "batch1.gz", "SUMMER10")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := uniqueCodes(ctx, []string{path}, 10)
	require.ErrorIs(t, err, context.Canceled)
}

type recordingWriter struct {
	batches [][]offer.Offer
}

func (w *recordingWriter) UpsertBatch(_ context.Context, offers []offer.Offer) error {
	w.batches = append(w.batches, append([]offer.Offer(nil), offers...))
	return nil
}

func TestWriteOffers(t *testing.T) {
	template := offer.Offer{
		Name:          "Campaign",
		DiscountType:  offer.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(15),
		Applicability: offer.AllItems(),
		StartDate:     time.Now(),
		EndDate:       time.Now().AddDate(0, 0, 7),
		Active:        true,
	}
	codes := make([]string, writeBatchSize+5)
	for i := range codes {
		codes[i] = "CODE" + strings.Repeat("X", i%3) + string(rune('A'+i%26))
	}

	w := &recordingWriter{}
	require.NoError(t, writeOffers(t.Context(), w, codes, template))
	require.Len(t, w.batches, 2)
	assert.Len(t, w.batches[0], writeBatchSize)
	assert.Len(t, w.batches[1], 5)

	first := w.batches[0][0]
	assert.Equal(t, codes[0], first.Code)
	assert.Equal(t, "Campaign", first.Name)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, w.batches[0][1].ID)
	assert.True(t, first.DiscountValue.Equal(decimal.NewFromInt(15)))
}
