package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/state"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	w := state.NewWorldState("srv_1", 4, 42)
	w.Meta.Tick = 17
	w.Players["p1"] = state.NewPlayer("p1", "Ada", state.RoleCitizen, 3, 9)
	w.Laws = append(w.Laws, state.Law{ID: "law_1", Status: state.LawVoting, OriginalText: "Tax the rich"})
	tokens := map[string]string{"p1": "abc123"}

	require.NoError(t, db.SaveGame(w, tokens))

	loaded, loadedTokens, err := db.LoadGame("srv_1")
	require.NoError(t, err)
	require.Equal(t, state.ContentHash(w), state.ContentHash(loaded))
	require.Equal(t, int64(17), loaded.Meta.Tick)
	require.Equal(t, "Ada", loaded.Players["p1"].Name)
	require.Equal(t, tokens, loadedTokens)
}

func TestSaveGameUpsert(t *testing.T) {
	db := openTestDB(t)
	w := state.NewWorldState("srv_1", 4, 42)

	require.NoError(t, db.SaveGame(w, nil))
	w.Meta.Tick = 5
	require.NoError(t, db.SaveGame(w, map[string]string{"p1": "tok"}))

	loaded, tokens, err := db.LoadGame("srv_1")
	require.NoError(t, err)
	require.Equal(t, int64(5), loaded.Meta.Tick)
	require.Equal(t, "tok", tokens["p1"])

	// Tokens are replaced, not accumulated.
	require.NoError(t, db.SaveGame(w, map[string]string{"p2": "tok2"}))
	_, tokens, err = db.LoadGame("srv_1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "tok2", tokens["p2"])
}

func TestLoadGameNotFound(t *testing.T) {
	db := openTestDB(t)
	_, _, err := db.LoadGame("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListGameIDs(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveGame(state.NewWorldState("srv_b", 4, 1), nil))
	require.NoError(t, db.SaveGame(state.NewWorldState("srv_a", 4, 2), nil))

	ids, err := db.ListGameIDs()
	require.NoError(t, err)
	require.Equal(t, []string{"srv_a", "srv_b"}, ids)
}

func TestDeleteGame(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveGame(state.NewWorldState("srv_1", 4, 1), map[string]string{"p1": "tok"}))
	require.NoError(t, db.DeleteGame("srv_1"))

	_, _, err := db.LoadGame("srv_1")
	require.ErrorIs(t, err, ErrNotFound)
}
