package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

func TestQuerySaveService_Save(t *testing.T) {
	card := map[string]any{"id": json.Number("42"), "name": "Users per month", "collection_id": nil}
	client := &mockMetabaseClient{card: card, databaseID: 3}
	svc := NewQuerySaveService(client, nil, zap.NewNop())

	outcome, err := svc.Save(context.Background(), &models.SQLArtifact{
		SQL:  "SELECT date_trunc('month', created_at), COUNT(*) FROM emsp.users GROUP BY 1",
		Name: "Users per month",
	})
	require.NoError(t, err)
	require.True(t, outcome.Succeeded())

	assert.Equal(t, "SQL saved as Metabase Question", outcome.Result.Message)
	assert.Equal(t, models.SavedQuery(card), outcome.Result.Card)

	require.Len(t, client.cards, 1)
	sent := client.cards[0]
	assert.Equal(t, "Users per month", sent.Name)
	assert.Equal(t, "table", sent.Display)
	assert.Equal(t, int64(3), sent.DatasetQuery.Database)
	assert.Equal(t, "native", sent.DatasetQuery.Type)
	assert.Equal(t, "SELECT date_trunc('month', created_at), COUNT(*) FROM emsp.users GROUP BY 1", sent.DatasetQuery.Native.Query)

	raw, err := json.Marshal(sent)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]any{}, decoded["visualization_settings"])
}

func TestQuerySaveService_DefaultName(t *testing.T) {
	client := &mockMetabaseClient{card: map[string]any{"id": 7}}
	svc := NewQuerySaveService(client, nil, nil)

	_, err := svc.Save(context.Background(), &models.SQLArtifact{SQL: "SELECT 1"})
	require.NoError(t, err)

	require.Len(t, client.cards, 1)
	assert.Equal(t, "Generated Question", client.cards[0].Name)
}

func TestQuerySaveService_DashboardIDIgnored(t *testing.T) {
	client := &mockMetabaseClient{card: map[string]any{"id": 8}}
	svc := NewQuerySaveService(client, nil, nil)

	dashboard := int64(12)
	outcome, err := svc.Save(context.Background(), &models.SQLArtifact{SQL: "SELECT 1", DashboardID: &dashboard})
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Len(t, client.cards, 1, "only the card is created")
}

func TestQuerySaveService_RejectedCardReturnsEnvelope(t *testing.T) {
	client := &mockMetabaseClient{cardErr: &metabase.APIError{StatusCode: 403, Body: "You don't have permissions to do that."}}
	svc := NewQuerySaveService(client, nil, nil)

	outcome, err := svc.Save(context.Background(), &models.SQLArtifact{SQL: "SELECT 1", Name: "x"})
	require.NoError(t, err)
	require.False(t, outcome.Succeeded())

	assert.Equal(t, "Failed to save question", outcome.Failure.Error)
	assert.Equal(t, "You don't have permissions to do that.", outcome.Failure.Details)
	require.NotNil(t, outcome.Failure.SQL)
	assert.Equal(t, "SELECT 1", *outcome.Failure.SQL)
}

func TestQuerySaveService_TransportFailureIsFatal(t *testing.T) {
	client := &mockMetabaseClient{cardErr: errors.New("failed to decode response: unexpected EOF")}
	svc := NewQuerySaveService(client, nil, nil)

	outcome, err := svc.Save(context.Background(), &models.SQLArtifact{SQL: "SELECT 1"})
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Contains(t, err.Error(), "create metabase card")
}

func TestQuerySaveService_BlankSQLIsForwarded(t *testing.T) {
	client := &mockMetabaseClient{
		databaseID: 3,
		cardErr:    &metabase.APIError{StatusCode: 400, Body: `{"errors":{"dataset_query":"value must be a valid query"}}`},
	}
	svc := NewQuerySaveService(client, nil, nil)

	outcome, err := svc.Save(context.Background(), &models.SQLArtifact{SQL: ""})
	require.NoError(t, err)

	require.Len(t, client.cards, 1, "blank sql still makes one remote call")
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, SaveFailedLabel, outcome.Failure.Error)
	assert.Contains(t, outcome.Failure.Details, "dataset_query")
}
