package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ignitionstack/rfcbridge/internal/repository"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, clock *fakeClock) *Cache {
	t.Helper()
	repo, err := repository.OpenInMemory(nil)
	require.NoError(t, err)
	c := New(repo, time.Hour, WithClock(clock.Now))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func systemInfo() *metadata.FunctionMetadata {
	return &metadata.FunctionMetadata{
		Name:        "RFC_SYSTEM_INFO",
		Description: "Read system information",
		Area:        "SRFC",
		DevClass:    "SRFC",
		Outputs: map[string]metadata.ParameterMetadata{
			"RFCSI_EXPORT": {Type: "STRUCTURE", Description: "System release data"},
		},
	}
}

func customerRead() *metadata.FunctionMetadata {
	return &metadata.FunctionMetadata{
		Name:        "BAPI_CUSTOMER_GETDETAIL",
		Description: "Customer details",
		Area:        "V02D",
		DevClass:    "VS",
		Inputs: map[string]metadata.ParameterMetadata{
			"CUSTOMERNO": {Type: "CHAR", Length: 10, Description: "Customer number"},
		},
	}
}

func TestPutGet(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	_, ok := c.Get("RFC_SYSTEM_INFO")
	assert.False(t, ok)

	c.Put("RFC_SYSTEM_INFO", systemInfo())

	got, ok := c.Get("RFC_SYSTEM_INFO")
	require.True(t, ok)
	assert.Equal(t, "Read system information", got.Description)
	assert.Contains(t, got.Outputs, "RFCSI_EXPORT")

	// Callers get copies.
	got.Outputs["RFCSI_EXPORT"] = metadata.ParameterMetadata{Type: "BROKEN"}
	again, _ := c.Get("RFC_SYSTEM_INFO")
	assert.Equal(t, "STRUCTURE", again.Outputs["RFCSI_EXPORT"].Type)
}

func TestGetExpiresEntries(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("RFC_SYSTEM_INFO", systemInfo())
	clock.Advance(59 * time.Minute)
	_, ok := c.Get("RFC_SYSTEM_INFO")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("RFC_SYSTEM_INFO")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.IndexTerms)
	assert.Empty(t, c.Search("system", 10))
}

func TestPutOverwriteRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("RFC_SYSTEM_INFO", systemInfo())
	clock.Advance(50 * time.Minute)
	c.Put("RFC_SYSTEM_INFO", systemInfo())
	clock.Advance(50 * time.Minute)

	_, ok := c.Get("RFC_SYSTEM_INFO")
	assert.True(t, ok)
}

func TestPutOverwriteDropsStaleTerms(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	c.Put("Z_TEST", &metadata.FunctionMetadata{Description: "old wording"})
	c.Put("Z_TEST", &metadata.FunctionMetadata{Description: "fresh text"})

	assert.Empty(t, c.Search("wording", 10))
	results := c.Search("fresh", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "Z_TEST", results[0].Name)
}

func TestSearch(t *testing.T) {
	c := newTestCache(t, newFakeClock())
	c.Put("RFC_SYSTEM_INFO", systemInfo())
	c.Put("BAPI_CUSTOMER_GETDETAIL", customerRead())

	results := c.Search("system", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "RFC_SYSTEM_INFO", results[0].Name)
	for _, r := range results {
		assert.NotEqual(t, "BAPI_CUSTOMER_GETDETAIL", r.Name)
	}

	// Exact "customer" (+2), plus substring hits on "customer",
	// "customerno" and "bapi_customer_getdetail" (+3).
	results = c.Search("Customer", 10)
	require.Len(t, results, 1)
	assert.Equal(t, 5, results[0].Score)

	// "getdetail" and "details" both occur inside the longer query term.
	results = c.Search("getdetails", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "BAPI_CUSTOMER_GETDETAIL", results[0].Name)
	assert.Equal(t, 2, results[0].Score)

	assert.Empty(t, c.Search("   ", 10))
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	c := newTestCache(t, newFakeClock())
	for _, name := range []string{"Z_ORDER_B", "Z_ORDER_A", "Z_ORDER_C"} {
		c.Put(name, &metadata.FunctionMetadata{Description: "order helper"})
	}

	results := c.Search("helper", 2)
	require.Len(t, results, 2)
	assert.Equal(t, "Z_ORDER_B", results[0].Name)
	assert.Equal(t, "Z_ORDER_A", results[1].Name)
}

func TestSearchDefaultLimit(t *testing.T) {
	c := newTestCache(t, newFakeClock())
	for i := 0; i < DefaultSearchLimit+5; i++ {
		c.Put(string(rune('A'+i))+"_FUNC", &metadata.FunctionMetadata{Description: "bulk"})
	}
	assert.Len(t, c.Search("bulk", 0), DefaultSearchLimit)
}

func TestStatsAndPurge(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("RFC_SYSTEM_INFO", systemInfo())
	clock.Advance(2 * time.Hour)
	c.Put("BAPI_CUSTOMER_GETDETAIL", customerRead())

	stats := c.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Expired)
	assert.Positive(t, stats.IndexTerms)
	assert.Positive(t, stats.ApproximateSizeBytes)

	assert.Equal(t, 1, c.PurgeExpired())
	assert.Equal(t, 0, c.PurgeExpired())

	stats = c.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Expired)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	repo, err := repository.Open(dir, nil)
	require.NoError(t, err)
	c := New(repo, time.Hour)
	c.Put("RFC_SYSTEM_INFO", systemInfo())
	require.NoError(t, c.Close())

	repo, err = repository.Open(dir, nil)
	require.NoError(t, err)
	c = New(repo, time.Hour)
	defer c.Close()

	got, ok := c.Get("RFC_SYSTEM_INFO")
	require.True(t, ok)
	assert.Equal(t, "SRFC", got.Area)
	require.NotEmpty(t, c.Search("system", 5))
}

func TestLoadRebuildsMissingIndex(t *testing.T) {
	dir := t.TempDir()

	repo, err := repository.Open(dir, nil)
	require.NoError(t, err)
	c := New(repo, time.Hour)
	c.Put("RFC_SYSTEM_INFO", systemInfo())
	require.NoError(t, repo.DropPrefix([]byte(termPrefix)))
	require.NoError(t, c.Close())

	repo, err = repository.Open(dir, nil)
	require.NoError(t, err)
	c = New(repo, time.Hour)
	defer c.Close()

	assert.NotEmpty(t, c.Search("system", 5))

	var stored []string
	err = repo.View(func(txn *badger.Txn) error {
		item, err := txn.Get(termKey("system"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &stored) })
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"RFC_SYSTEM_INFO"}, stored)
}

func TestLoadDropsUndecodableEntries(t *testing.T) {
	repo, err := repository.OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, repo.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey("Z_BROKEN"), []byte("{not json"))
	}))

	c := New(repo, time.Hour)
	defer c.Close()

	_, ok := c.Get("Z_BROKEN")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Total)

	err = repo.View(func(txn *badger.Txn) error {
		_, err := txn.Get(metaKey("Z_BROKEN"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestExportSnapshot(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("RFC_SYSTEM_INFO", systemInfo())
	clock.Advance(2 * time.Hour)
	c.Put("BAPI_CUSTOMER_GETDETAIL", customerRead())
	c.Put("ABAP_READER", &metadata.FunctionMetadata{
		Description: "Reader",
		Tables: map[string]metadata.ParameterMetadata{
			"DATA": {Type: "TABLE", Fields: map[string]metadata.FieldMetadata{"WA": {Type: "CHAR"}}},
		},
	})

	path := filepath.Join(t.TempDir(), "export", "snapshot.json")
	n, err := c.ExportSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, SnapshotSchemaVersion, snapshot.Metadata.SchemaVersion)
	assert.Equal(t, 2, snapshot.Metadata.TotalFunctions)
	require.Len(t, snapshot.Functions, 2)

	assert.Equal(t, "ABAP_READER", snapshot.Functions[0].FunctionName)
	assert.Equal(t, "Table with 1 fields", snapshot.Functions[0].Parameters.Tables[0].Description)

	customer := snapshot.Functions[1]
	assert.Equal(t, "BAPI_CUSTOMER_GETDETAIL", customer.FunctionName)
	assert.Equal(t, "VS", customer.DevClass)
	require.Len(t, customer.Parameters.Inputs, 1)
	assert.Equal(t, "CUSTOMERNO", customer.Parameters.Inputs[0].Name)
	assert.Equal(t, "BAPI_CUSTOMER_GETDETAIL Customer details CUSTOMERNO Customer number", customer.SearchText)
}
