// internal/workers/logistics/optimize-logistics/models.go
package optimizelogistics

import "deal-workers/internal/models"

type Input struct {
	Shipment models.ShipmentRequest `json:"shipment"`
}

type Output struct {
	Route       models.Route `json:"route"`
	Provider    string       `json:"provider"`
	TotalCost   string       `json:"totalCost"`
	TransitDays int          `json:"transitDays"`
}
