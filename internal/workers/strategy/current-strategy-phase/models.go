// internal/workers/strategy/current-strategy-phase/models.go
package currentstrategyphase

import "deal-workers/internal/models"

type Input struct {
	AccountID string `json:"accountId"`
}

type Output struct {
	StrategyPhase models.StrategyPhase `json:"strategyPhase"`
	PhaseName     models.PhaseName     `json:"phaseName"`
	MaxTermDays   int                  `json:"maxTermDays"`
}
