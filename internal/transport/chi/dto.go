package chi

import (
	"fmt"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// filterPayload is the wire form of a metadata filter: each field maps
// to an [operator, value] pair, for example {"year": [">=", 2020]}.
type filterPayload map[string][]any

func (f filterPayload) toDomain() (domain.Constraints, error) {
	if len(f) == 0 {
		return nil, nil
	}
	out := make(domain.Constraints, len(f))
	for field, pair := range f {
		if len(pair) != 2 {
			return nil, fmt.Errorf("filter for %q must be an [operator, value] pair", field)
		}
		op, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("filter operator for %q must be a string", field)
		}
		out[field] = domain.Condition{Op: domain.Operator(op), Value: pair[1]}
	}
	return out, nil
}

type documentPayload struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Vector   []float32      `json:"vector,omitempty"`
}

func (d documentPayload) toDomain() domain.Document {
	return domain.Document{
		ID:       d.ID,
		Content:  d.Content,
		Metadata: d.Metadata,
		Vector:   d.Vector,
	}
}

func documentToPayload(doc domain.Document, withVector bool) documentPayload {
	p := documentPayload{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	}
	if withVector {
		p.Vector = doc.Vector
	}
	return p
}

type documentsRequest struct {
	Documents []documentPayload `json:"documents"`
}

type idsResponse struct {
	IDs []string `json:"ids"`
}

type queryRequest struct {
	IDs            []string      `json:"ids,omitempty"`
	Filter         filterPayload `json:"filter,omitempty"`
	Limit          int           `json:"limit,omitempty"`
	IncludeVectors bool          `json:"include_vectors,omitempty"`
}

type documentsResponse struct {
	Items []documentPayload `json:"items"`
	Total int               `json:"total"`
}

type deleteRequest struct {
	IDs    []string      `json:"ids,omitempty"`
	Filter filterPayload `json:"filter,omitempty"`
}

type deleteResponse struct {
	Matched int `json:"matched"`
}

type countResponse struct {
	Count int `json:"count"`
}

type searchRequest struct {
	Query          string        `json:"query,omitempty"`
	Vector         []float32     `json:"vector,omitempty"`
	K              int           `json:"k,omitempty"`
	FetchK         int           `json:"fetch_k,omitempty"`
	Filter         filterPayload `json:"filter,omitempty"`
	Relevance      bool          `json:"relevance,omitempty"`
	MMR            bool          `json:"mmr,omitempty"`
	Lambda         *float64      `json:"lambda,omitempty"`
	IncludeVectors bool          `json:"include_vectors,omitempty"`
}

type searchResultItem struct {
	documentPayload
	Score float64 `json:"score"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
