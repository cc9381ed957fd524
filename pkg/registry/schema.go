package registry

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags"`
}

type schema = map[string]interface{}

func object(required []string, properties schema) schema {
	req := make([]interface{}, len(required))
	for i, r := range required {
		req[i] = r
	}
	return schema{
		"type":       "object",
		"required":   req,
		"properties": properties,
	}
}

func str() schema {
	return schema{"type": "string", "minLength": 1}
}

func optionalStr() schema {
	return schema{"type": "string"}
}

func nonNegative() schema {
	return schema{"type": "number", "minimum": 0}
}

func positive() schema {
	return schema{"type": "number", "exclusiveMinimum": 0}
}

func percentage() schema {
	return schema{"type": "number", "minimum": 0, "maximum": 100}
}

func opportunitySchema() schema {
	return object([]string{"id", "buyPrice", "sellPrice", "volume"}, schema{
		"id":                   str(),
		"productCategory":      optionalStr(),
		"sourceMarket":         optionalStr(),
		"targetMarket":         optionalStr(),
		"buyPrice":             nonNegative(),
		"sellPrice":            nonNegative(),
		"marginPct":            schema{"type": "number"},
		"volume":               nonNegative(),
		"confidence":           percentage(),
		"supplyGap":            percentage(),
		"demandStrength":       percentage(),
		"regulatoryComplexity": percentage(),
		"logisticsDifficulty":  percentage(),
		"marketVolatility":     percentage(),
		"timeWindowHours":      nonNegative(),
	})
}

func termsSchema() schema {
	return object([]string{"customerTerms", "supplierTerms"}, schema{
		"customerTerms":            optionalStr(),
		"supplierTerms":            optionalStr(),
		"dealValue":                nonNegative(),
		"customerCreditworthiness": percentage(),
		"supplierReliability":      percentage(),
	})
}

func dealSchema() schema {
	return object([]string{"value", "customerTerms", "supplierTerms"}, schema{
		"value":                    nonNegative(),
		"customerTerms":            optionalStr(),
		"supplierTerms":            optionalStr(),
		"customerCreditworthiness": percentage(),
		"supplierReliability":      percentage(),
	})
}

func shipmentSchema() schema {
	return object([]string{"origin", "destination", "weightKg", "valueUsd"}, schema{
		"origin":          str(),
		"destination":     str(),
		"weightKg":        positive(),
		"valueUsd":        nonNegative(),
		"productCategory": optionalStr(),
	})
}
