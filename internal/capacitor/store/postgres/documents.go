package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// Documents implements ports.DocumentStore on capacitor_documents.
type Documents struct {
	pool *pgxpool.Pool
}

func NewDocuments(pool *pgxpool.Pool) *Documents {
	return &Documents{pool: pool}
}

func (s *Documents) InsertOne(ctx context.Context, namespace, collection string, doc domain.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO capacitor_documents (namespace, collection, cap_id, body)
		 VALUES ($1, $2, $3, $4)`,
		namespace, collection, capIDOf(doc), body,
	)
	if err != nil {
		return classify(fmt.Errorf("insert into %s.%s: %w", namespace, collection, err))
	}
	return nil
}

// UpsertByCapID merges doc into the oldest document matching capID, or inserts
// it when none matches. Top-level keys of doc replace existing ones.
func (s *Documents) UpsertByCapID(ctx context.Context, namespace, collection, capID string, doc domain.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE capacitor_documents SET body = body || $4::jsonb
			 WHERE id = (
				SELECT id FROM capacitor_documents
				WHERE namespace = $1 AND collection = $2 AND cap_id = $3
				ORDER BY id LIMIT 1
				FOR UPDATE
			 )`,
			namespace, collection, capID, body,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO capacitor_documents (namespace, collection, cap_id, body)
			 VALUES ($1, $2, $3, $4)`,
			namespace, collection, capID, body,
		)
		return err
	})
	if err != nil {
		return classify(fmt.Errorf("upsert %s.%s cap_id=%s: %w", namespace, collection, capID, err))
	}
	return nil
}

// Find returns the bodies stored in a collection, oldest first.
func (s *Documents) Find(ctx context.Context, namespace, collection string) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM capacitor_documents
		 WHERE namespace = $1 AND collection = $2
		 ORDER BY id`,
		namespace, collection,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", namespace, collection, err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc domain.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func encode(doc domain.Document) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w: %w", sentinel.ErrRejected, err)
	}
	return body, nil
}

func capIDOf(doc domain.Document) string {
	if id, ok := doc[domain.FieldCapID].(string); ok {
		return id
	}
	return domain.DefaultCapID
}
