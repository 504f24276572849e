package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velli/flipscout/internal/comps"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/valuation"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "flipscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testItem() *Item {
	return &Item{
		ID:       uuid.New().String(),
		ImageURL: "/images/test.jpg",
		Attributes: scan.Attributes{
			Brand:     "Patagonia",
			Category:  "Jacket",
			Size:      "M",
			Condition: "Good",
			Color:     "Green",
		},
		PurchasePrice: 20,
		Result: valuation.Result{
			Verdict:            valuation.VerdictBuy,
			ExpectedResaleMin:  45,
			ExpectedResaleMax:  55,
			NetProfit:          17,
			Roi:                2.5,
			Confidence:         valuation.ConfidenceMedium,
			TimeToSell:         "30-60 days",
			Comps:              []comps.Comp{{ID: "c1", SoldPrice: 45, Similarity: comps.VerySimilar}},
			AssumptionsSummary: "Using: eBay · Fees 15% · Shipping $5.50 · Min ROI 2.5x",
		},
		Status:    StatusConsidering,
		CreatedAt: time.Now(),
	}
}

func TestAddAndGetItem(t *testing.T) {
	store := newTestStore(t)
	item := testItem()

	require.NoError(t, store.AddItem(item))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.Attributes, got.Attributes)
	assert.Equal(t, item.Result, got.Result)
	assert.Equal(t, StatusConsidering, got.Status)
	assert.Nil(t, got.Note)
	assert.Nil(t, got.SoldPrice)
	assert.Nil(t, got.SoldDate)
}

func TestGetItemMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetItem("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddItemValidation(t *testing.T) {
	store := newTestStore(t)

	noID := testItem()
	noID.ID = ""
	assert.Error(t, store.AddItem(noID))

	badPrice := testItem()
	badPrice.PurchasePrice = 0
	assert.Error(t, store.AddItem(badPrice))

	soldAtBirth := testItem()
	soldAtBirth.Status = StatusSold
	assert.Error(t, store.AddItem(soldAtBirth))
}

func TestListItemsMostRecentFirst(t *testing.T) {
	store := newTestStore(t)

	older := testItem()
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testItem()
	newer.CreatedAt = time.Now()

	require.NoError(t, store.AddItem(older))
	require.NoError(t, store.AddItem(newer))

	items, err := store.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
}

func TestUpdateItemPreservesIdentity(t *testing.T) {
	store := newTestStore(t)
	item := testItem()
	require.NoError(t, store.AddItem(item))

	newPrice := 35.0
	note := "thrift store find"
	newAttrs := item.Attributes
	newAttrs.Brand = "The North Face"
	newResult := item.Result
	newResult.Verdict = valuation.VerdictMaybe

	got, err := store.UpdateItem(item.ID, ItemPatch{
		Attributes:    &newAttrs,
		PurchasePrice: &newPrice,
		Note:          &note,
		Result:        &newResult,
	})
	require.NoError(t, err)

	assert.Equal(t, item.ID, got.ID)
	assert.WithinDuration(t, item.CreatedAt, got.CreatedAt, time.Second)
	assert.Equal(t, StatusConsidering, got.Status)
	assert.Equal(t, "The North Face", got.Attributes.Brand)
	assert.Equal(t, 35.0, got.PurchasePrice)
	require.NotNil(t, got.Note)
	assert.Equal(t, note, *got.Note)
	assert.Equal(t, valuation.VerdictMaybe, got.Result.Verdict)
}

func TestUpdateItemNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateItem("no-such-id", ItemPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateItemStatusTransitions(t *testing.T) {
	store := newTestStore(t)
	item := testItem()
	require.NoError(t, store.AddItem(item))

	purchased := StatusPurchased
	got, err := store.UpdateItem(item.ID, ItemPatch{Status: &purchased})
	require.NoError(t, err)
	assert.Equal(t, StatusPurchased, got.Status)

	// Back to Considering is not permitted
	considering := StatusConsidering
	_, err = store.UpdateItem(item.ID, ItemPatch{Status: &considering})
	assert.Error(t, err)

	// Sold must go through MarkSold
	sold := StatusSold
	_, err = store.UpdateItem(item.ID, ItemPatch{Status: &sold})
	assert.Error(t, err)
}

func TestMarkSold(t *testing.T) {
	store := newTestStore(t)
	item := testItem()
	require.NoError(t, store.AddItem(item))

	got, err := store.MarkSold(item.ID, 60, "2026-08-20")
	require.NoError(t, err)
	assert.Equal(t, StatusSold, got.Status)
	require.NotNil(t, got.SoldPrice)
	assert.Equal(t, 60.0, *got.SoldPrice)
	require.NotNil(t, got.SoldDate)
	assert.Equal(t, "2026-08-20", *got.SoldDate)

	// Sold is terminal
	_, err = store.MarkSold(item.ID, 70, "")
	assert.Error(t, err)
}

func TestMarkSoldDefaultsDateToToday(t *testing.T) {
	store := newTestStore(t)
	item := testItem()
	require.NoError(t, store.AddItem(item))

	got, err := store.MarkSold(item.ID, 42.5, "")
	require.NoError(t, err)
	require.NotNil(t, got.SoldDate)
	assert.Equal(t, time.Now().Format("2006-01-02"), *got.SoldDate)
}

func TestMarkSoldValidation(t *testing.T) {
	store := newTestStore(t)
	item := testItem()
	require.NoError(t, store.AddItem(item))

	_, err := store.MarkSold(item.ID, 0, "")
	assert.Error(t, err)
	_, err = store.MarkSold(item.ID, -10, "")
	assert.Error(t, err)
	_, err = store.MarkSold(item.ID, 50, "not-a-date")
	assert.Error(t, err)
	_, err = store.MarkSold("no-such-id", 50, "")
	assert.ErrorIs(t, err, ErrNotFound)

	// None of the failed attempts changed the item
	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConsidering, got.Status)
	assert.Nil(t, got.SoldPrice)
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	// Unset settings load as defaults
	got, err := store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, valuation.DefaultSettings(), got)

	custom := valuation.Settings{
		PrimaryMarketplace: valuation.MarketplacePoshmark,
		FeePercent:         20,
		AvgShippingCost:    7.25,
		TargetRoi:          3,
		MinimumProfit:      15,
	}
	require.NoError(t, store.SaveSettings(custom))

	got, err = store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	bad := valuation.DefaultSettings()
	bad.FeePercent = -1
	assert.Error(t, store.SaveSettings(bad))
}

func TestMalformedSettingsFallBackToDefaults(t *testing.T) {
	store := newTestStore(t)

	// Corrupt the row behind the store's back
	_, err := store.db.Exec(`
		INSERT INTO settings (id, marketplace, fee_percent, avg_shipping_cost, target_roi, minimum_profit, updated_at)
		VALUES (1, 'eBay', -50, 5.5, 0, 10, CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	got, err := store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, valuation.DefaultSettings(), got)
}

func TestScanCacheRoundTrip(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetScanCache("abc123")
	require.NoError(t, err)
	assert.Nil(t, got)

	attrs := &scan.Attributes{Brand: "Nike", Category: "Sneakers", Size: "42", Condition: "Good", Color: "White"}
	require.NoError(t, store.SetScanCache("abc123", attrs))

	got, err = store.GetScanCache("abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *attrs, *got)
}
