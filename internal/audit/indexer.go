// Package audit keeps a searchable trail of execution gate decisions in
// Elasticsearch.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

const DefaultIndex = "deal-decisions"

var ErrIndexFailed = errors.New("audit index failed")

// Entry is the indexed form of a decision.
type Entry struct {
	DecisionID      string                `json:"decisionId"`
	AccountID       string                `json:"accountId,omitempty"`
	OpportunityID   string                `json:"opportunityId"`
	Result          models.DecisionResult `json:"result"`
	Reasons         []string              `json:"reasons"`
	Modifications   []string              `json:"modifications"`
	Score           float64               `json:"score"`
	Priority        models.PriorityTier   `json:"priority"`
	CapitalRequired float64               `json:"capitalRequired"`
	OverallRisk     float64               `json:"overallRisk"`
	Phase           models.PhaseName      `json:"phase"`
	EvaluatedAt     time.Time             `json:"evaluatedAt"`
}

func NewEntry(accountID string, d models.Decision, at time.Time) Entry {
	return Entry{
		DecisionID:      uuid.NewString(),
		AccountID:       accountID,
		OpportunityID:   d.OpportunityID,
		Result:          d.Result,
		Reasons:         d.Reasons,
		Modifications:   d.Modifications,
		Score:           d.Score.Score,
		Priority:        d.Score.Priority,
		CapitalRequired: d.Cashflow.CapitalRequired,
		OverallRisk:     d.Risk.OverallRisk,
		Phase:           d.Phase.Name,
		EvaluatedAt:     at,
	}
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index}
}

// Record indexes one decision.
func (i *Indexer) Record(ctx context.Context, accountID string, d models.Decision) error {
	entry := NewEntry(accountID, d, time.Now().UTC())
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: entry.DecisionID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.Status())
	}
	return nil
}

// Recent returns the latest decisions taken for an opportunity, newest first.
func (i *Indexer) Recent(ctx context.Context, opportunityID string, size int) ([]Entry, error) {
	if size <= 0 {
		size = 10
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"opportunityId": opportunityID},
		},
		"sort": []interface{}{
			map[string]interface{}{"evaluatedAt": map[string]string{"order": "desc"}},
		},
		"size": size,
	}
	body, _ := json.Marshal(query)

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		entries = append(entries, hit.Source)
	}
	return entries, nil
}
