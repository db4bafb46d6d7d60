package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SeuMarco/program/internal/infra/persistence/memory"
	"github.com/SeuMarco/program/internal/infra/persistence/postgres/testutil"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withStub(t *testing.T) (*testutil.StubConn, *sql.DB) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, defaultDriver, driver)
		assert.Equal(t, defaultDSN, dsn)
		return db, nil
	})
	t.Cleanup(restore)
	return conn, db
}

func TestNewStoreHydratesFromState(t *testing.T) {
	conn, _ := withStub(t)
	payload, err := json.Marshal(map[string]domain.Menu{"m1": {Base: domain.Base{ID: "m1"}, Name: "Alpha"}})
	require.NoError(t, err)
	conn.Tables["state"] = []map[string]any{
		{"bucket": "menus", "payload": payload},
		{"bucket": "unknown", "payload": []byte(`{}`)},
		{"bucket": "tags", "payload": []byte{}},
	}

	store, err := NewStore("", domain.NewRulesEngine())
	require.NoError(t, err)
	menu, ok := store.GetMenu("m1")
	require.True(t, ok)
	assert.Equal(t, "Alpha", menu.Name)
	assert.Contains(t, conn.Execs[0], "CREATE TABLE IF NOT EXISTS state")
}

func TestRunInTransactionPersistsBuckets(t *testing.T) {
	conn, _ := withStub(t)
	store, err := NewStore("", nil)
	require.NoError(t, err)

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateMenu(domain.Menu{Name: "Alpha"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, conn.Tables["state"], len(memory.SnapshotBuckets))
	assert.Equal(t, 1, conn.Commits)

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateMenu(domain.Menu{Name: "Beta"})
		return err
	})
	require.NoError(t, err)
	assert.Len(t, conn.Tables["state"], len(memory.SnapshotBuckets), "upsert replaces rows")

	for _, row := range conn.Tables["state"] {
		if row["bucket"] != "menus" {
			continue
		}
		var menus map[string]domain.Menu
		require.NoError(t, json.Unmarshal(row["payload"].([]byte), &menus))
		assert.Len(t, menus, 2)
	}
}

func TestPersistFailures(t *testing.T) {
	conn, _ := withStub(t)
	store, err := NewStore("", nil)
	require.NoError(t, err)
	create := func(tx domain.Transaction) error {
		_, err := tx.CreateMenu(domain.Menu{Name: "Alpha"})
		return err
	}

	conn.FailBegin = true
	_, err = store.RunInTransaction(context.Background(), create)
	assert.ErrorContains(t, err, "begin tx")
	conn.FailBegin = false

	conn.FailCommit = true
	_, err = store.RunInTransaction(context.Background(), create)
	assert.ErrorContains(t, err, "commit")
	conn.FailCommit = false

	conn.FailExec = true
	_, err = store.RunInTransaction(context.Background(), create)
	assert.ErrorContains(t, err, "upsert result_levels")
}

func TestNewStoreOpenErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, errors.New("dial failed")
	})
	_, err := NewStore("postgres://example", nil)
	restore()
	assert.ErrorContains(t, err, "open postgres")

	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	_, err = NewStore("", nil)
	assert.ErrorContains(t, err, "ping postgres")
	assert.ErrorContains(t, db.PingContext(context.Background()), "database is closed")
}

func TestRestoreWritesSnapshot(t *testing.T) {
	conn, _ := withStub(t)
	store, err := NewStore("", nil)
	require.NoError(t, err)
	err = store.Restore(context.Background(), memory.Snapshot{Tags: map[string]domain.ScopedRecord{
		"t1": {Base: domain.Base{ID: "t1"}, Kind: domain.EntityTag, Name: "tag"},
	}})
	require.NoError(t, err)
	assert.Len(t, store.ListScopedRecords(domain.EntityTag), 1)
	assert.Len(t, conn.Tables["state"], len(memory.SnapshotBuckets))
	require.NoError(t, store.Close())
}
