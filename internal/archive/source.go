// Package archive selects card transformation candidates from the problem
// archive index.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/logger"
)

// Archive document field names.
const (
	fieldTags              = "tags"
	fieldScore             = "score"
	fieldAskedAt           = "asked_at"
	fieldHasAcceptedAnswer = "has_accepted_answer"
	fieldIsClosed          = "is_closed"
)

// queryTimeout bounds a single candidate search.
const queryTimeout = 30 * time.Second

// Source fetches the best-scoring archived problem matching the automation
// criteria. It is the pipeline's content source.
type Source struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewSource creates a new archive source over index.
func NewSource(client *es.Client, index string, log logger.Logger) *Source {
	return &Source{client: client, index: index, log: log}
}

// FetchCandidate returns the highest-scoring problem matching criteria, or
// ErrNoCandidate when nothing in the index qualifies.
func (s *Source) FetchCandidate(ctx context.Context, criteria domain.FetchCriteria) (*domain.Candidate, error) {
	query := buildQuery(criteria, time.Now().UTC())

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.client.Search(
		s.client.Search.WithContext(queryCtx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]any
		if decodeErr := json.NewDecoder(res.Body).Decode(&e); decodeErr != nil {
			return nil, fmt.Errorf("elasticsearch error response: %s", res.Status())
		}
		return nil, fmt.Errorf("elasticsearch error: %v", e)
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string           `json:"_id"`
				Source domain.Candidate `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(result.Hits.Hits) == 0 {
		s.log.Debug("No candidate matched criteria",
			logger.Strings("tags", criteria.TagGroup),
			logger.Int("total", result.Hits.Total.Value),
		)
		return nil, fmt.Errorf("%w: tags %v", domain.ErrNoCandidate, criteria.TagGroup)
	}

	hit := result.Hits.Hits[0]
	candidate := hit.Source
	if candidate.ID == "" {
		candidate.ID = hit.ID
	}
	if candidate.SourceRef == "" {
		candidate.SourceRef = "archive:" + candidate.ID
	}

	s.log.Info("Candidate selected",
		logger.String("candidate_id", candidate.ID),
		logger.Int("score", candidate.Score),
		logger.Strings("tags", criteria.TagGroup),
	)
	return &candidate, nil
}

// buildQuery assembles the bool query enforcing the candidate quality bar.
func buildQuery(criteria domain.FetchCriteria, now time.Time) map[string]any {
	must := []map[string]any{
		{
			"terms": map[string]any{
				fieldTags: criteria.TagGroup,
			},
		},
		{
			"range": map[string]any{
				fieldScore: map[string]any{
					"gte": criteria.ScoreMin,
					"lte": criteria.ScoreMax,
				},
			},
		},
	}

	if criteria.RecencyWindow > 0 {
		since := now.Add(-criteria.RecencyWindow).Format(time.RFC3339)
		must = append(must, map[string]any{
			"range": map[string]any{
				fieldAskedAt: map[string]any{
					"gte": since,
				},
			},
		})
	}
	if criteria.MustHaveAcceptedAnswer {
		must = append(must, map[string]any{
			"term": map[string]any{
				fieldHasAcceptedAnswer: true,
			},
		})
	}
	if criteria.ExcludeClosed {
		must = append(must, map[string]any{
			"term": map[string]any{
				fieldIsClosed: false,
			},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": must,
			},
		},
		"size": 1,
		"sort": []map[string]any{
			{
				fieldScore: map[string]any{
					"order": "desc",
				},
			},
		},
	}
}
