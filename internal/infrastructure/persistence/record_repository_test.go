package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*RecordRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return NewRecordRepository(db), mock, func() { db.Close() }
}

func TestRecordRepositoryList(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	countSQL := "SELECT COUNT(*) as `total` FROM `app_demo__tasks` WHERE `status` = ?"
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(5))

	listSQL := "SELECT * FROM `app_demo__tasks` WHERE `status` = ? ORDER BY `title` ASC LIMIT 2 OFFSET 2"
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
			AddRow([]byte("3"), []byte("Plan sprint"), []byte("open")).
			AddRow([]byte("4"), []byte("Write report"), []byte("open")))

	records, total, err := repo.List(context.Background(), "app_demo__tasks", models.FetchQuery{
		Page:     2,
		PageSize: 2,
		Sort:     "title",
		Order:    "asc",
		Filters:  []models.FilterSpec{{Field: "status", Operator: "eq", Value: "open"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 5, total, "total is the unpaged filtered count")
	require.Len(t, records, 2)
	assert.Equal(t, "Plan sprint", records[0]["title"], "byte columns scan into strings")

	assert.NoError(t, mock.ExpectationsWereMet())
	t.Logf("✅ list paginates and reports the unpaged total")
}

func TestRecordRepositoryListFilterTranslation(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	countSQL := "SELECT COUNT(*) as `total` FROM `t` WHERE (`status` != ? OR `status` IS NULL) AND `title` LIKE BINARY ? AND `id` IN (?, ?) AND `deleted_at` IS NULL"
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WithArgs("done", "%Re%", "1", "2").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1))

	listSQL := "SELECT * FROM `t` WHERE (`status` != ? OR `status` IS NULL) AND `title` LIKE BINARY ? AND `id` IN (?, ?) AND `deleted_at` IS NULL"
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WithArgs("done", "%Re%", "1", "2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("2", "Review PR"))

	records, total, err := repo.List(context.Background(), "t", models.FetchQuery{
		Filters: []models.FilterSpec{
			{Field: "status", Operator: "neq", Value: "done"},
			{Field: "title", Operator: "like", Value: "Re"},
			{Field: "id", Operator: "in", Value: []interface{}{"1", "2"}},
			{Field: "deleted_at", Operator: "is_null"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "Review PR", records[0]["title"])

	assert.NoError(t, mock.ExpectationsWereMet())
	t.Logf("✅ operator set translates to parameterized WHERE clauses")
}

func TestRecordRepositoryListEmptyInMatchesNothing(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	countSQL := "SELECT COUNT(*) as `total` FROM `t` WHERE 1 = 0"
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))

	listSQL := "SELECT * FROM `t` WHERE 1 = 0"
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, total, err := repo.List(context.Background(), "t", models.FetchQuery{
		Filters: []models.FilterSpec{{Field: "id", Operator: "in", Value: []interface{}{}}},
	})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryGet(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	getSQL := "SELECT * FROM `app_demo__tasks` WHERE `id` = ? LIMIT 1"
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("42", "Ship it"))

	rec, err := repo.Get(context.Background(), "app_demo__tasks", "42")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Ship it", rec["title"])

	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	rec, err = repo.Get(context.Background(), "app_demo__tasks", "missing")
	require.NoError(t, err)
	assert.Nil(t, rec, "a missing row is nil, not an error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryInsertSerializesJSONValues(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	// Column order is deterministic (sorted), JSON-shaped values become text.
	insertSQL := "INSERT INTO `app_demo__tasks` (`id`, `meta`, `title`) VALUES (?, ?, ?)"
	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
		WithArgs("1", `{"tags":["urgent"]}`, "Write report").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), "app_demo__tasks", models.Record{
		"id":    "1",
		"title": "Write report",
		"meta":  map[string]interface{}{"tags": []interface{}{"urgent"}},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	t.Logf("✅ insert serializes nested values for JSON columns")
}

func TestRecordRepositoryUpdate(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	updateSQL := "UPDATE `app_demo__tasks` SET `status` = ?, `title` = ? WHERE `id` = ?"
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).
		WithArgs("done", "Reviewed", "1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "app_demo__tasks", "1", models.Record{
		"title":  "Reviewed",
		"status": "done",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryUpdateWithNoChangesIsANoOp(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	err := repo.Update(context.Background(), "app_demo__tasks", "1", models.Record{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement issued for an empty update")
}

func TestRecordRepositoryDelete(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	deleteSQL := "DELETE FROM `app_demo__tasks` WHERE `id` = ?"
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "app_demo__tasks", "1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
