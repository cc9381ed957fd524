package logistics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	commonhttp "deal-workers/internal/common/http"
	"deal-workers/internal/models"

	"github.com/shopspring/decimal"
)

// HTTPProvider asks a carrier quoting endpoint for a price. Every failure,
// including exhausted retries, is reported as ErrProviderUnavailable.
type HTTPProvider struct {
	name     string
	endpoint string
	client   *commonhttp.Client
}

func NewHTTPProvider(name, endpoint string, client *commonhttp.Client) *HTTPProvider {
	return &HTTPProvider{name: name, endpoint: endpoint, client: client}
}

func (p *HTTPProvider) Name() string {
	return p.name
}

type carrierQuoteRequest struct {
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	WeightKg        float64 `json:"weightKg"`
	ValueUSD        float64 `json:"valueUsd"`
	ProductCategory string  `json:"productCategory,omitempty"`
}

type carrierQuoteResponse struct {
	Carrier     string              `json:"carrier"`
	ServiceType models.ServiceClass `json:"serviceType"`
	Cost        decimal.Decimal     `json:"cost"`
	TransitDays int                 `json:"transitDays"`
	Reliability float64             `json:"reliability"`
	Available   *bool               `json:"available,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}

func (p *HTTPProvider) Quote(ctx context.Context, req models.ShipmentRequest) (models.LogisticsQuote, error) {
	body, err := json.Marshal(carrierQuoteRequest(req))
	if err != nil {
		return models.LogisticsQuote{}, fmt.Errorf("%w: encode request: %v", ErrProviderUnavailable, err)
	}

	resp, err := p.client.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, p.name, resp.StatusCode)
	}

	var out carrierQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s: decode response: %v", ErrProviderUnavailable, p.name, err)
	}
	if out.Available != nil && !*out.Available {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s: %s", ErrNotApplicable, p.name, out.Reason)
	}
	if out.Cost.IsNegative() || out.TransitDays < 0 {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s returned an invalid quote", ErrProviderUnavailable, p.name)
	}

	return models.LogisticsQuote{
		Provider:    p.name,
		Carrier:     out.Carrier,
		ServiceType: out.ServiceType,
		Cost:        out.Cost,
		TransitDays: out.TransitDays,
		Reliability: out.Reliability,
	}, nil
}
