// Package feedback provides a full-text index over customer feedback
// comments, used to corroborate root causes with what customers actually
// reported.
package feedback

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/naze/internal/models"
)

type commentDoc struct {
	Comment string `json:"comment"`
	City    string `json:"city"`
}

// Index is an in-memory full-text index over feedback comments. It is built
// per request from the filtered dataset and discarded afterwards; the
// filtered feedback slice is small enough that building beats maintaining a
// persistent index against a swappable snapshot.
type Index struct {
	index bleve.Index
	total int
}

// NewIndex builds an index over the given feedback records. Records without
// a comment are skipped.
func NewIndex(feedback []models.Record) (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize without stemming, so a query
	// for "contact" does not also have to anticipate stemmed forms.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("comment", textFieldMapping)
	docMapping.AddFieldMappingsAt("city", bleve.NewKeywordFieldMapping())
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create feedback index: %w", err)
	}

	total := 0
	batch := index.NewBatch()
	for i := range feedback {
		r := &feedback[i]
		if r.Comment == "" {
			continue
		}
		if err := batch.Index(r.ID, commentDoc{Comment: r.Comment, City: r.City}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index feedback %s: %w", r.ID, err)
		}
		total++
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("index feedback batch: %w", err)
	}
	return &Index{index: index, total: total}, nil
}

// Total returns the number of indexed comments.
func (i *Index) Total() int {
	return i.total
}

// CountAny returns how many comments match at least one of the terms.
func (i *Index) CountAny(terms ...string) (int, error) {
	if i.total == 0 || len(terms) == 0 {
		return 0, nil
	}
	queries := make([]blevequery.Query, len(terms))
	for j, term := range terms {
		mq := bleve.NewMatchQuery(term)
		mq.SetField("comment")
		queries[j] = mq
	}
	search := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	search.Size = 0
	results, err := i.index.Search(search)
	if err != nil {
		return 0, fmt.Errorf("feedback search failed: %w", err)
	}
	return int(results.Total), nil
}

// Close releases the in-memory index.
func (i *Index) Close() error {
	return i.index.Close()
}
