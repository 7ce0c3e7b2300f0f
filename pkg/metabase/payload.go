package metabase

import "encoding/json"

// QueryTypeNative is the dataset query type for raw SQL.
const QueryTypeNative = "native"

// DisplayTable is the visualization used for saved cards.
const DisplayTable = "table"

// NativeQuery carries the SQL text of a native dataset query.
type NativeQuery struct {
	Query string `json:"query"`
}

// DatasetQuery is the body of POST /api/dataset and the dataset_query of a card.
type DatasetQuery struct {
	Database int64       `json:"database"`
	Type     string      `json:"type"`
	Native   NativeQuery `json:"native"`
}

// NewNativeQuery builds a native dataset query for databaseID.
func NewNativeQuery(databaseID int64, sql string) DatasetQuery {
	return DatasetQuery{
		Database: databaseID,
		Type:     QueryTypeNative,
		Native:   NativeQuery{Query: sql},
	}
}

// CardPayload is the body of POST /api/card.
type CardPayload struct {
	Name                  string         `json:"name"`
	DatasetQuery          DatasetQuery   `json:"dataset_query"`
	Display               string         `json:"display"`
	VisualizationSettings map[string]any `json:"visualization_settings"`
}

// NewNativeCard builds a table card for a native query.
func NewNativeCard(name string, databaseID int64, sql string) *CardPayload {
	return &CardPayload{
		Name:                  name,
		DatasetQuery:          NewNativeQuery(databaseID, sql),
		Display:               DisplayTable,
		VisualizationSettings: map[string]any{},
	}
}

// MarshalJSON encodes the card. Metabase rejects a null
// visualization_settings, so a nil map is sent as {}.
func (c CardPayload) MarshalJSON() ([]byte, error) {
	type card CardPayload
	out := card(c)
	if out.VisualizationSettings == nil {
		out.VisualizationSettings = map[string]any{}
	}
	return json.Marshal(out)
}

// Column describes one result column of a dataset response.
type Column struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	BaseType    string `json:"base_type,omitempty"`
}

// DatasetResponse is the subset of the POST /api/dataset response that is
// forwarded to callers.
type DatasetResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	Data   struct {
		Cols []Column `json:"cols"`
		Rows [][]any  `json:"rows"`
	} `json:"data"`
}

// ColumnNames returns the result column names in response order.
func (r *DatasetResponse) ColumnNames() []string {
	names := make([]string, 0, len(r.Data.Cols))
	for _, c := range r.Data.Cols {
		names = append(names, c.Name)
	}
	return names
}

// Rows returns the result rows, never nil.
func (r *DatasetResponse) Rows() [][]any {
	if r.Data.Rows == nil {
		return [][]any{}
	}
	return r.Data.Rows
}
