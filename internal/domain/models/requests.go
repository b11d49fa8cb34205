package models

// SimulationInputPayload mirrors SimulationInput with optional fields so that the
// validator can tell an absent value from a zero value. Counts decode as JSON
// numbers so that 10.0 is accepted and 10.5 fails the integer rule.
type SimulationInputPayload struct {
	InitialWeight *float64 `json:"initialWeight" validate:"required,gte=0.5,lte=200000"`
	Quantity      *float64 `json:"quantity" validate:"required,integer,gte=1,lte=2000000"`
	Temperature   *float64 `json:"temperature" validate:"required,gte=10,lte=40"`
	FeedPrice     *float64 `json:"feedPrice" validate:"required,gte=0,lte=10000"`
	Weeks         *float64 `json:"weeks" validate:"required,integer,gte=1,lte=52"`
	Phase         *string  `json:"phase,omitempty"`
}

// ToInput dereferences a payload that already passed validation.
func (p SimulationInputPayload) ToInput() SimulationInput {
	input := SimulationInput{}
	if p.InitialWeight != nil {
		input.InitialWeight = *p.InitialWeight
	}
	if p.Quantity != nil {
		input.Quantity = int(*p.Quantity)
	}
	if p.Temperature != nil {
		input.Temperature = *p.Temperature
	}
	if p.FeedPrice != nil {
		input.FeedPrice = *p.FeedPrice
	}
	if p.Weeks != nil {
		input.Weeks = int(*p.Weeks)
	}
	if p.Phase != nil {
		input.Phase = *p.Phase
	}
	return input
}

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Input *SimulationInputPayload `json:"input"`
}

// CalculateResponse pairs an output with the engine revision that produced it.
type CalculateResponse struct {
	Output        SimulationOutput `json:"output"`
	EngineVersion string           `json:"engineVersion"`
}

// SaveSimulationRequest is the body of POST /api/simulations.
type SaveSimulationRequest struct {
	Name  string                  `json:"name"`
	Input *SimulationInputPayload `json:"input"`
}

// ShareSimulationRequest is the body of POST /api/simulations/:id/share.
type ShareSimulationRequest struct {
	To string `json:"to" binding:"required"`
}

// FieldError attributes a validation failure to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
