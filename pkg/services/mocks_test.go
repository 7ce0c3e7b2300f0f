package services

import (
	"context"
	"sync"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
)

// fakeSchemaSource serves a fixed artifact, or ErrSchemaArtifactMissing.
type fakeSchemaSource struct {
	text    string
	missing bool
}

func (f *fakeSchemaSource) Read() (string, error) {
	if f.missing {
		return "", apperrors.ErrSchemaArtifactMissing
	}
	return f.text, nil
}

// mockMetabaseClient records calls and returns canned responses.
type mockMetabaseClient struct {
	mu sync.Mutex

	dataset    *metabase.DatasetResponse
	datasetErr error
	card       map[string]any
	cardErr    error
	databaseID int64

	queries []string
	cards   []*metabase.CardPayload
}

func (m *mockMetabaseClient) RunNativeQuery(ctx context.Context, sql string) (*metabase.DatasetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, sql)
	return m.dataset, m.datasetErr
}

func (m *mockMetabaseClient) CreateCard(ctx context.Context, card *metabase.CardPayload) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, card)
	return m.card, m.cardErr
}

func (m *mockMetabaseClient) DatabaseID() int64 {
	return m.databaseID
}
