package models

import (
	"encoding/json"
	"strconv"
)

// DefaultQueryName is the card name used when a caller does not supply one.
const DefaultQueryName = "Generated Question"

// GenerationRequest is the body of a generate request.
type GenerationRequest struct {
	Question string `json:"question"`
}

// GeneratedSQL is the response of a generate request.
type GeneratedSQL struct {
	SQL string `json:"sql"`
}

// SQLArtifact is a SQL statement ready to be run or saved on the analytics engine.
// DashboardID is accepted for forward compatibility; dashboard attachment is not
// performed.
type SQLArtifact struct {
	SQL         string `json:"sql"`
	Name        string `json:"name,omitempty"`
	DashboardID *int64 `json:"dashboard_id,omitempty"`
}

// EffectiveName returns Name, or DefaultQueryName when Name is empty.
func (a *SQLArtifact) EffectiveName() string {
	if a.Name == "" {
		return DefaultQueryName
	}
	return a.Name
}

// QueryResult is the tabular result of an ad-hoc query. Columns and the values
// of each row share the same order; rows keep the engine's order.
type QueryResult struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// SavedQuery is the card representation returned by the analytics engine.
// It is forwarded verbatim; only the id is interpreted.
type SavedQuery map[string]any

// CardID returns the numeric id of the card, if present.
func (q SavedQuery) CardID() (int64, bool) {
	switch v := q["id"].(type) {
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// SaveResult is the success response of a save request.
type SaveResult struct {
	Message string     `json:"message"`
	Card    SavedQuery `json:"card"`
}

// ErrorEnvelope is returned in place of a result when the analytics engine
// rejects a request. It is a normal result, not an error.
type ErrorEnvelope struct {
	Error   string  `json:"error"`
	Details string  `json:"details"`
	SQL     *string `json:"sql,omitempty"`
}

// RunOutcome is the result of running an ad-hoc query. Exactly one of Result
// and Failure is set.
type RunOutcome struct {
	Result  *QueryResult
	Failure *ErrorEnvelope
}

// Succeeded reports whether the engine accepted the query.
func (o *RunOutcome) Succeeded() bool {
	return o.Failure == nil
}

// Body returns the value to encode in a response.
func (o *RunOutcome) Body() any {
	if o.Failure != nil {
		return o.Failure
	}
	return o.Result
}

// SaveOutcome is the result of saving a query. Exactly one of Result and
// Failure is set.
type SaveOutcome struct {
	Result  *SaveResult
	Failure *ErrorEnvelope
}

// Succeeded reports whether the engine created the card.
func (o *SaveOutcome) Succeeded() bool {
	return o.Failure == nil
}

// Body returns the value to encode in a response.
func (o *SaveOutcome) Body() any {
	if o.Failure != nil {
		return o.Failure
	}
	return o.Result
}

// OutputFormat is the requested representation of a query result.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = ""
	OutputFormatCSV  OutputFormat = "csv"
	OutputFormatXLSX OutputFormat = "xlsx"
)

// Valid reports whether f is one of the recognized formats.
func (f OutputFormat) Valid() bool {
	switch f {
	case OutputFormatJSON, OutputFormatCSV, OutputFormatXLSX:
		return true
	}
	return false
}
