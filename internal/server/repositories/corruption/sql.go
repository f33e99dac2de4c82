package corruption

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Add(ctx context.Context, rec *models.CorruptionRecord) error {
	query :=
		`INSERT INTO corruption_records (ts, user_id, project_id, file_name, message)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, timex.ToMillis(rec.Timestamp), rec.UserID, rec.ProjectID, rec.FileName, rec.Message)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.CorruptionRecord, error) {
	query :=
		`SELECT ts, user_id, project_id, file_name, message FROM corruption_records
		 WHERE project_id = $1 ORDER BY ts, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select corruption records: %w", err)
	}
	defer rows.Close()

	var result []*models.CorruptionRecord
	for rows.Next() {
		var (
			rec models.CorruptionRecord
			ts  int64
		)
		if err := rows.Scan(&ts, &rec.UserID, &rec.ProjectID, &rec.FileName, &rec.Message); err != nil {
			return nil, err
		}
		rec.Timestamp = timex.FromMillis(ts)
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
