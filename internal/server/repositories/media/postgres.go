package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dsmolkin/mediakeeper/internal/common"
	"github.com/dsmolkin/mediakeeper/internal/dbx"
	model "github.com/dsmolkin/mediakeeper/internal/media"
)

const mediaColumns = `id, type, status, title, description, name, dir, path, provider, container,
		mime_type, size, height, width, duration, tags, checksum, created_at, updated_at, deleted_at`

// PostgresRepository implements media storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *model.Media) error {
	tags, err := marshalTags(m.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO media (id, type, status, title, description, name, dir, path, provider, container,
			mime_type, size, height, width, duration, tags, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at;
	`
	var createdAt, updatedAt time.Time
	err = r.db.QueryRowContext(ctx, query,
		m.ID, m.Type, m.Status, m.Title, m.Description, m.Name, m.Dir, m.Path, m.Provider, m.Container,
		m.MimeType, m.Size, m.Height, m.Width, m.Duration, tags, m.Checksum,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}

	m.CreatedAt = &createdAt
	m.UpdatedAt = &updatedAt
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*model.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id=$1`

	m, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, ids []string, status model.Status) ([]model.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, status)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE media SET status=$1, updated_at=now()
		WHERE id IN (%s)
		RETURNING `+mediaColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update media status: %w", err)
	}
	defer rows.Close()

	var result []model.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(row scanner) (*model.Media, error) {
	var m model.Media
	var tags []byte
	var createdAt, updatedAt time.Time
	var deletedAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.Type, &m.Status, &m.Title, &m.Description, &m.Name, &m.Dir, &m.Path, &m.Provider, &m.Container,
		&m.MimeType, &m.Size, &m.Height, &m.Width, &m.Duration, &tags, &m.Checksum, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &m.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	m.CreatedAt = &createdAt
	m.UpdatedAt = &updatedAt
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}
	return &m, nil
}
