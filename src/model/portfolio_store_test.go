package model

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioview/backend/src/models"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func createTestPortfolio(t *testing.T, db *sql.DB, id string, typ models.PortfolioType) *models.Portfolio {
	t.Helper()
	p := &models.Portfolio{ID: id, Name: "pf-" + id, Type: typ, BaseCurrency: "USD"}
	require.NoError(t, CreatePortfolio(db, p))
	return p
}

func TestCreateAndGetPortfolio(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)

	p, err := GetPortfolioByID(db, "p1")
	require.NoError(t, err)
	assert.Equal(t, "pf-p1", p.Name)
	assert.Equal(t, models.PortfolioTypeTransaction, p.Type)
	assert.Equal(t, "USD", p.BaseCurrency)
	assert.NotEmpty(t, p.CreatedAt)
}

func TestGetPortfolioNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetPortfolioByID(db, "missing")
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestCreatePortfolioDuplicateName(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)

	err := CreatePortfolio(db, &models.Portfolio{ID: "p2", Name: "pf-p1", Type: models.PortfolioTypeTransaction, BaseCurrency: "USD"})
	assert.Error(t, err)
}

func TestListPortfoliosOrderedByName(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, CreatePortfolio(db, &models.Portfolio{ID: "b", Name: "beta", Type: models.PortfolioTypeSnapshot, BaseCurrency: "EUR"}))
	require.NoError(t, CreatePortfolio(db, &models.Portfolio{ID: "a", Name: "alpha", Type: models.PortfolioTypeTransaction, BaseCurrency: "USD"}))

	portfolios, err := ListPortfolios(db)
	require.NoError(t, err)
	require.Len(t, portfolios, 2)
	assert.Equal(t, "alpha", portfolios[0].Name)
	assert.Equal(t, "beta", portfolios[1].Name)
}

func TestDeletePortfolioCascades(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)

	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, InsertTransactions(dbTx, "p1", []models.TransactionRecord{
		{Datetime: "2024-01-05T09:30", Symbol: "AAPL", Side: "BUY", Quantity: 10, Price: 150.25, Fee: 1},
	}))
	require.NoError(t, dbTx.Commit())

	require.NoError(t, DeletePortfolio(db, "p1"))

	records, err := ListTransactions(db, "p1")
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.ErrorIs(t, DeletePortfolio(db, "p1"), ErrPortfolioNotFound)
}

func TestInsertAndListTransactionsOrdered(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)

	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, InsertTransactions(dbTx, "p1", []models.TransactionRecord{
		{Datetime: "2024-01-06T10:00", Symbol: "MSFT", Side: "SELL", Quantity: 5, Price: 310},
		{Datetime: "2024-01-05T09:30", Symbol: "AAPL", Side: "BUY", Quantity: 10, Price: 150.25, Fee: 1},
	}))
	require.NoError(t, dbTx.Commit())

	records, err := ListTransactions(db, "p1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AAPL", records[0].Symbol)
	assert.Equal(t, "MSFT", records[1].Symbol)
}

func TestInsertAndListPositions(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeSnapshot)

	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, InsertPositions(dbTx, "p1", []models.SnapshotRecord{
		{Symbol: "AAPL", Quantity: 10, CostBasis: 1500, AsOf: "2024-03-31"},
	}))
	require.NoError(t, dbTx.Commit())

	records, err := ListPositions(db, "p1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1500.0, records[0].CostBasis)
}

func TestClearRecordsTouchesOnlyOwnPortfolio(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)
	createTestPortfolio(t, db, "p2", models.PortfolioTypeTransaction)

	seed := func(pfID string) {
		dbTx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, InsertTransactions(dbTx, pfID, []models.TransactionRecord{
			{Datetime: "2024-01-05T09:30", Symbol: "AAPL", Side: "BUY", Quantity: 1, Price: 1},
		}))
		require.NoError(t, dbTx.Commit())
	}
	seed("p1")
	seed("p2")

	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, ClearRecords(dbTx, "p1", models.PortfolioTypeTransaction))
	require.NoError(t, dbTx.Commit())

	p1Records, err := ListTransactions(db, "p1")
	require.NoError(t, err)
	assert.Empty(t, p1Records)

	p2Records, err := ListTransactions(db, "p2")
	require.NoError(t, err)
	assert.Len(t, p2Records, 1)
}

func TestRecordAndListImportHistory(t *testing.T) {
	db := newTestDB(t)
	createTestPortfolio(t, db, "p1", models.PortfolioTypeTransaction)

	for _, filename := range []string{"first.csv", "second.csv"} {
		dbTx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, RecordImport(dbTx, &models.ImportHistoryEntry{
			PortfolioID: "p1",
			Filename:    filename,
			FileSize:    123,
			Schema:      "transaction",
			RecordCount: 2,
			Mode:        "append",
		}))
		require.NoError(t, dbTx.Commit())
	}

	history, err := ListImportHistory(db, "p1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, "second.csv", history[0].Filename)
	assert.Equal(t, "first.csv", history[1].Filename)
}
