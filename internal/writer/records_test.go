package writer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stuianna/CMCLogger/internal/database"
	"github.com/stuianna/CMCLogger/internal/model"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cryptoData.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testAsset(symbol string, price float64) model.Asset {
	volume := 25267403944.62
	return model.Asset{
		ID:          1,
		Name:        symbol,
		Symbol:      symbol,
		Slug:        symbol,
		CMCRank:     1,
		LastUpdated: "2019-08-28T00:33:33.000Z",
		DateAdded:   "2013-04-28T00:00:00.000Z",
		Quote: map[string]model.Quote{
			"AUD": {
				Price:       &price,
				Volume24h:   &volume,
				LastUpdated: "2019-08-28T00:33:33.000Z",
			},
		},
	}
}

func TestAppendNilIsNoOp(t *testing.T) {
	db := openTestDB(t)
	w := NewRecordWriter(db, "AUD", nil)

	w.Append(context.Background(), nil)

	names, err := db.TableNames(context.Background())
	if err != nil {
		t.Fatalf("TableNames failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("nil append created tables: %v", names)
	}
}

func TestAppendCreatesTablesAndRows(t *testing.T) {
	db := openTestDB(t)
	w := NewRecordWriter(db, "AUD", nil)
	w.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	w.Append(ctx, []model.Asset{
		testAsset("BTC", 10857.98),
		testAsset("ETH", 273.51),
	})

	for _, symbol := range []string{"BTC", "ETH"} {
		rec, err := db.LatestRecord(ctx, symbol)
		if err != nil {
			t.Fatalf("LatestRecord(%s) failed: %v", symbol, err)
		}
		if rec == nil {
			t.Fatalf("no row stored for %s", symbol)
		}
		if rec.Timestamp != 1700000000 {
			t.Errorf("%s timestamp = %d, want 1700000000", symbol, rec.Timestamp)
		}
	}

	btc, err := db.LatestRecord(ctx, "BTC")
	if err != nil {
		t.Fatalf("LatestRecord failed: %v", err)
	}
	if btc.Price == nil || *btc.Price != 10857.98 {
		t.Errorf("BTC price = %v, want 10857.98", btc.Price)
	}
}

func TestAppendSkipsBadRecords(t *testing.T) {
	db := openTestDB(t)
	w := NewRecordWriter(db, "AUD", nil)
	ctx := context.Background()

	bad := testAsset("BAD", 1.0)
	bad.LastUpdated = "not a timestamp"

	w.Append(ctx, []model.Asset{bad, testAsset("BTC", 10857.98)})

	if rec, err := db.LatestRecord(ctx, "BAD"); err != nil || rec != nil {
		t.Errorf("bad asset stored: rec=%v err=%v", rec, err)
	}
	rec, err := db.LatestRecord(ctx, "BTC")
	if err != nil {
		t.Fatalf("LatestRecord failed: %v", err)
	}
	if rec == nil {
		t.Error("good asset was not stored after a bad one")
	}
}

func TestAppendMissingCurrencyQuote(t *testing.T) {
	db := openTestDB(t)
	w := NewRecordWriter(db, "USD", nil)
	ctx := context.Background()

	w.Append(ctx, []model.Asset{testAsset("BTC", 10857.98)})

	if rec, err := db.LatestRecord(ctx, "BTC"); err != nil || rec != nil {
		t.Errorf("asset with no quote for the configured currency stored: rec=%v err=%v", rec, err)
	}
}

func TestAppendReusesKnownTables(t *testing.T) {
	db := openTestDB(t)
	w := NewRecordWriter(db, "AUD", nil)
	ctx := context.Background()

	w.Append(ctx, []model.Asset{testAsset("BTC", 10857.98)})
	w.Append(ctx, []model.Asset{testAsset("BTC", 10901.55)})

	rec, err := db.LatestRecord(ctx, "BTC")
	if err != nil {
		t.Fatalf("LatestRecord failed: %v", err)
	}
	if rec == nil {
		t.Fatal("no row stored for BTC")
	}
	if !w.tables["BTC"] {
		t.Error("writer did not cache the created table")
	}
}
