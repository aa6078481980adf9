package asset

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	defer sqlxDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM asset_types ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(1, "Silver", time.Now()).
			AddRow(2, "Gold", time.Now()).
			AddRow(3, "Diamond", time.Now()))

	r, err := LoadRegistry(context.Background(), sqlxDB)
	require.NoError(t, err)

	id, err := r.ID("gold")
	require.NoError(t, err)
	require.Equal(t, 2, id)

	name, err := r.Name(3)
	require.NoError(t, err)
	require.Equal(t, "Diamond", name)
}

func TestLoadRegistry_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	defer sqlxDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM asset_types ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

	_, err = LoadRegistry(context.Background(), sqlxDB)
	require.Error(t, err)
}

func TestRegistry_UnknownAsset(t *testing.T) {
	r := NewRegistry(map[string]int{Silver: 1, Gold: 2, Diamond: 3})

	_, err := r.ID("Platinum")
	require.ErrorIs(t, err, ErrAssetNotFound)

	_, err = r.Name(42)
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestRegistry_CaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry(map[string]int{Silver: 1})

	for _, name := range []string{"Silver", "silver", "SILVER"} {
		id, err := r.ID(name)
		require.NoError(t, err)
		require.Equal(t, 1, id)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(map[string]int{Silver: 1, Gold: 2, Diamond: 3})
	require.ElementsMatch(t, []string{"Silver", "Gold", "Diamond"}, r.Names())
}
