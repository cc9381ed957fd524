// internal/workers/opportunity/score-opportunity/models.go
package scoreopportunity

import "deal-workers/internal/models"

type Input struct {
	Opportunity models.Opportunity `json:"opportunity"`
}

type Output struct {
	ScoreResult models.ScoreResult  `json:"scoreResult"`
	Score       float64             `json:"score"`
	Priority    models.PriorityTier `json:"priority"`
}
