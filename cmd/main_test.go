package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-client/internal/firestore/domain/model"
)

func TestParseArgs(t *testing.T) {
	cmd, err := parseArgs([]string{"get", "users/alice", "users/bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"users/alice", "users/bob"}, cmd.paths)
	assert.Nil(t, cmd.fieldPaths)
	assert.False(t, cmd.transaction)

	cmd, err = parseArgs([]string{"get", "--mask=name,address.city", "--transaction", "users/alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "address.city"}, cmd.fieldPaths)
	assert.True(t, cmd.transaction)

	cmd, err = parseArgs([]string{"get", "--mask=", "users/alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, cmd.fieldPaths)

	_, err = parseArgs(nil)
	assert.Error(t, err)
	_, err = parseArgs([]string{"put", "users/alice"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"get"})
	assert.Error(t, err)
}

func TestSnapshotView(t *testing.T) {
	assert.Nil(t, snapshotView(nil))

	db, err := model.NewDatabaseName("p1", "")
	require.NoError(t, err)
	alice, err := model.NewDocumentRef(db, "users", "alice")
	require.NoError(t, err)
	bob, err := model.NewDocumentRef(db, "users", "bob")
	require.NoError(t, err)

	when := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	snap := model.NewDocumentSnapshot(alice, map[string]interface{}{
		"name":    "Alice",
		"friends": []interface{}{bob},
	}, true, when, when, when)

	out, err := json.Marshal(snapshotView(snap))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": "projects/p1/databases/(default)/documents/users/alice",
		"exists": true,
		"read_time": "2026-10-18T00:00:00Z",
		"create_time": "2026-10-18T00:00:00Z",
		"update_time": "2026-10-18T00:00:00Z",
		"data": {"name": "Alice", "friends": ["projects/p1/databases/(default)/documents/users/bob"]}
	}`, string(out))
}
