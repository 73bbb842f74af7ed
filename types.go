package vdms

import (
	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Engine selects the server-side indexing implementation of a collection.
type Engine string

// Supported engines.
const (
	FaissFlat     Engine = "FaissFlat"
	FaissHNSWFlat Engine = "FaissHNSWFlat"
	FaissIVFFlat  Engine = "FaissIVFFlat"
	Flinng        Engine = "Flinng"
	TileDBDense   Engine = "TileDBDense"
	TileDBSparse  Engine = "TileDBSparse"
)

// Metric selects the distance metric of a collection.
type Metric string

// Supported metrics. L2 distances rank ascending, IP similarities descending.
const (
	L2 Metric = "L2"
	IP Metric = "IP"
)

// Document is a text document with scalar metadata and an optional
// pre-computed vector.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// ScoredDocument pairs a document with its search score. The score is
// the raw server distance unless a relevance conversion was requested.
type ScoredDocument struct {
	Document
	Score float64
}

func (d Document) toDomain() domain.Document {
	return domain.Document{
		ID:       d.ID,
		Content:  d.Content,
		Metadata: d.Metadata,
		Vector:   d.Vector,
	}
}

func documentFromDomain(doc domain.Document) Document {
	return Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
		Vector:   doc.Vector,
	}
}

func documentsFromDomain(docs []domain.Document) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = documentFromDomain(doc)
	}
	return out
}

func scoredFromDomain(scored []domain.ScoredDocument) []ScoredDocument {
	out := make([]ScoredDocument, len(scored))
	for i, sd := range scored {
		out[i] = ScoredDocument{Document: documentFromDomain(sd.Document), Score: sd.Score}
	}
	return out
}

func documentsOnly(scored []domain.ScoredDocument) []Document {
	out := make([]Document, len(scored))
	for i, sd := range scored {
		out[i] = documentFromDomain(sd.Document)
	}
	return out
}
