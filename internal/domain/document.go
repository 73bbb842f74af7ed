package domain

// Reserved descriptor properties. The id and content of a document are stored
// as regular properties on the descriptor; `langchain_id` keeps on-server
// compatibility with the Python integration that populated existing sets.
const (
	IDProperty       = "langchain_id"
	ContentProperty  = "content"
	DistanceProperty = "_distance"
	DeletionProperty = "_deletion"
)

// DefaultProperties is the baseline property list of a fresh descriptor set.
var DefaultProperties = []string{DistanceProperty, IDProperty, ContentProperty}

// invalidDocMetadataKeys never appear in Document.Metadata of returned results.
var invalidDocMetadataKeys = map[string]struct{}{
	DistanceProperty: {},
	ContentProperty:  {},
	"blob":           {},
}

// Document is a text document with scalar metadata and an optional vector.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// ScoredDocument pairs a document with its search score.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// ReservedMetadataKey reports whether key must not surface as document metadata.
func ReservedMetadataKey(key string) bool {
	_, ok := invalidDocMetadataKeys[key]
	return ok
}

// ValidMetadataValue rejects the server's placeholder values for absent
// properties ("Missing property", nil, empty maps).
func ValidMetadataValue(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "Missing property" {
		return false
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return false
	}
	return true
}

// ValidateMetadata returns a copy of metadata with list values dropped,
// since descriptor properties hold scalars only.
func ValidateMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case []any, []string, []int, []float64, []float32:
			continue
		}
		out[k] = v
	}
	return out
}

// Properties flattens a document into the descriptor property map sent to the
// server: id and content become reserved properties alongside the metadata.
func (d *Document) Properties() map[string]any {
	props := make(map[string]any, len(d.Metadata)+2)
	if d.ID != "" {
		props[IDProperty] = d.ID
	}
	for k, v := range d.Metadata {
		if _, exists := props[k]; !exists {
			props[k] = v
		}
	}
	if d.Content != "" {
		props[ContentProperty] = d.Content
	}
	return props
}

// DocumentFromProperties rebuilds a document from a returned entity map,
// filtering reserved keys and placeholder values.
func DocumentFromProperties(props map[string]any) Document {
	doc := Document{Metadata: make(map[string]any, len(props))}
	for k, v := range props {
		if ReservedMetadataKey(k) || !ValidMetadataValue(v) {
			continue
		}
		doc.Metadata[k] = v
	}
	if id, ok := doc.Metadata[IDProperty].(string); ok {
		doc.ID = id
		delete(doc.Metadata, IDProperty)
	}
	if content, ok := props[ContentProperty].(string); ok {
		doc.Content = content
	}
	return doc
}
