package media

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dsmolkin/mediakeeper/internal/common"
	model "github.com/dsmolkin/mediakeeper/internal/media"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func mediaRow(id string, status model.Status, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "type", "status", "title", "description", "name", "dir", "path", "provider", "container",
		"mime_type", "size", "height", "width", "duration", "tags", "checksum", "created_at", "updated_at", "deleted_at",
	}).AddRow(
		id, "IMAGE", string(status), "", "", "photo.png", "", "media/2026/08/31/"+id, "s3", "media",
		"image/png", int64(42), 7, 12, float64(0), []byte(`["tag1"]`), "abc123", now, now, nil,
	)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO media .* RETURNING created_at, updated_at;`).
		WithArgs(
			"m1", "IMAGE", "INIT", "", "", "photo.png", "", "media/2026/08/31/m1", "s3", "media",
			"image/png", int64(42), 7, 12, float64(0), []byte(`[]`), "abc123",
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	m := &model.Media{
		ID:        "m1",
		Type:      model.TypeImage,
		Status:    model.StatusInit,
		Name:      "photo.png",
		Path:      "media/2026/08/31/m1",
		Provider:  "s3",
		Container: "media",
		MimeType:  "image/png",
		Size:      42,
		Height:    7,
		Width:     12,
		Checksum:  "abc123",
	}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CreatedAt == nil || m.UpdatedAt == nil {
		t.Fatalf("timestamps not populated: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO media .* RETURNING created_at, updated_at;`).
		WillReturnError(errors.New("db is down"))

	err := repo.Create(context.Background(), &model.Media{ID: "m1", Type: model.TypeOther, Status: model.StatusInit})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM media WHERE id=\$1`).
		WithArgs("m1").
		WillReturnRows(mediaRow("m1", model.StatusTemp, now))

	m, err := repo.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "m1" || m.Status != model.StatusTemp {
		t.Fatalf("unexpected record: %+v", m)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "tag1" {
		t.Fatalf("tags not decoded: %+v", m.Tags)
	}
	if m.DeletedAt != nil {
		t.Fatalf("expected nil DeletedAt, got %v", m.DeletedAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM media WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestUpdateStatus_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := mediaRow("m1", model.StatusActive, now)
	rows.AddRow(
		"m2", "PDF", "ACTIVE", "", "", "doc.pdf", "", "media/2026/08/31/m2", "s3", "media",
		"application/pdf", int64(10), 0, 0, float64(0), []byte(`[]`), "def456", now, now, nil,
	)

	mock.ExpectQuery(`UPDATE media SET status=\$1, updated_at=now\(\) WHERE id IN \(\$2, \$3\) RETURNING .*`).
		WithArgs("ACTIVE", "m1", "m2").
		WillReturnRows(rows)

	updated, err := repo.UpdateStatus(context.Background(), []string{"m1", "m2"}, model.StatusActive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("want 2 rows, got %d", len(updated))
	}
	if updated[0].Status != model.StatusActive || updated[1].Status != model.StatusActive {
		t.Fatalf("statuses not updated: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatus_EmptyIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updated, err := repo.UpdateStatus(context.Background(), nil, model.StatusTemp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != nil {
		t.Fatalf("want nil result, got %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db calls: %v", err)
	}
}

func TestUpdateStatus_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE media SET status=\$1`).
		WillReturnError(errors.New("db is down"))

	_, err := repo.UpdateStatus(context.Background(), []string{"m1"}, model.StatusTemp)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}
