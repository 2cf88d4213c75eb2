package evaluation

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

// Schema creates the tables PostgresStore reads.
const Schema = `
CREATE TABLE IF NOT EXISTS evaluation_queries (
    number INTEGER PRIMARY KEY CHECK (number > 0),
    text   TEXT NOT NULL DEFAULT '',
    image  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS relevance_judgments (
    query_number  INTEGER NOT NULL REFERENCES evaluation_queries (number) ON DELETE CASCADE,
    document_name TEXT NOT NULL,
    PRIMARY KEY (query_number, document_name)
);`

// PostgresStore reads queries and judgments from Postgres.
type PostgresStore struct {
	client *postgres.Client
}

func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating judgment tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) Queries(ctx context.Context) ([]Query, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT number, text, image FROM evaluation_queries ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing queries: %v", apperrors.ErrJudgmentsUnavailable, err)
	}
	defer rows.Close()
	var queries []Query
	for rows.Next() {
		var q Query
		if err := rows.Scan(&q.Number, &q.Text, &q.Image); err != nil {
			return nil, fmt.Errorf("%w: scanning query: %v", apperrors.ErrJudgmentsUnavailable, err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing queries: %v", apperrors.ErrJudgmentsUnavailable, err)
	}
	return queries, nil
}

func (s *PostgresStore) Relevant(ctx context.Context, queryNumber int) (RelevantSet, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT document_name FROM relevance_judgments WHERE query_number = $1`, queryNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: judgments of query %d: %v", apperrors.ErrJudgmentsUnavailable, queryNumber, err)
	}
	defer rows.Close()
	set := RelevantSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning judgment: %v", apperrors.ErrJudgmentsUnavailable, err)
		}
		set[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: judgments of query %d: %v", apperrors.ErrJudgmentsUnavailable, queryNumber, err)
	}
	return set, nil
}

// Import replaces the stored batch with the queries and judgments of src in
// one transaction.
func (s *PostgresStore) Import(ctx context.Context, src *FileStore) error {
	queries, err := src.Queries(ctx)
	if err != nil {
		return err
	}
	judged := src.Judged()
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM evaluation_queries`); err != nil {
			return fmt.Errorf("clearing queries: %w", err)
		}
		for _, q := range queries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO evaluation_queries (number, text, image) VALUES ($1, $2, $3)`,
				q.Number, q.Text, q.Image); err != nil {
				return fmt.Errorf("inserting query %d: %w", q.Number, err)
			}
			for _, name := range judged[q.Number] {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO relevance_judgments (query_number, document_name) VALUES ($1, $2)`,
					q.Number, name); err != nil {
					return fmt.Errorf("inserting judgment %d/%s: %w", q.Number, name, err)
				}
			}
		}
		return nil
	})
}
