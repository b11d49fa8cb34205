package models

import (
	"errors"
	"time"
)

// ErrSimulationNotFound is returned when a stored simulation does not exist or
// belongs to another user.
var ErrSimulationNotFound = errors.New("simulation not found")

// SimulationInput is the population state handed to the engine.
type SimulationInput struct {
	InitialWeight float64 `json:"initialWeight" bson:"initial_weight"` // grams
	Quantity      int     `json:"quantity" bson:"quantity"`
	Temperature   float64 `json:"temperature" bson:"temperature"` // Celsius
	FeedPrice     float64 `json:"feedPrice" bson:"feed_price"`    // per kg
	Weeks         int     `json:"weeks" bson:"weeks"`
	// Phase is accepted for compatibility with older clients and never read by the engine.
	Phase string `json:"phase,omitempty" bson:"phase,omitempty"`
}

// WeeklyProjection is the state of the population at the end of one simulated week.
type WeeklyProjection struct {
	Week                   int     `json:"week" bson:"week" csv:"week"`
	AverageWeight          float64 `json:"averageWeight" bson:"average_weight" csv:"average_weight_g"`
	FeedConsumption        float64 `json:"feedConsumption" bson:"feed_consumption" csv:"feed_consumption_kg"`
	AccumulatedConsumption float64 `json:"accumulatedConsumption" bson:"accumulated_consumption" csv:"accumulated_consumption_kg"`
	Biomass                float64 `json:"biomass" bson:"biomass" csv:"biomass_kg"`
	Cost                   float64 `json:"cost" bson:"cost" csv:"cost"`
}

// SimulationOutput groups the immediate feeding recommendation with the weekly projection.
type SimulationOutput struct {
	Biomass        float64            `json:"biomass" bson:"biomass"`       // kg
	DailyFeed      float64            `json:"dailyFeed" bson:"daily_feed"` // kg/day
	DailyFeedings  int                `json:"dailyFeedings" bson:"daily_feedings"`
	FeedPerFeeding int                `json:"feedPerFeeding" bson:"feed_per_feeding"` // grams
	FeedType       string             `json:"feedType" bson:"feed_type"`
	DailyCost      float64            `json:"dailyCost" bson:"daily_cost"`
	FCR            float64            `json:"fcr" bson:"fcr"`
	Projections    []WeeklyProjection `json:"projections" bson:"projections"`
}

// FinalWeight returns the projected average weight after the last week, or zero
// when there are no projections.
func (o SimulationOutput) FinalWeight() float64 {
	if len(o.Projections) == 0 {
		return 0
	}
	return o.Projections[len(o.Projections)-1].AverageWeight
}

// Simulation is a saved calculation owned by a user.
type Simulation struct {
	ID            string           `bson:"_id" json:"id"`
	UserID        string           `bson:"user_id" json:"userId"`
	Name          string           `bson:"name" json:"name"`
	Date          time.Time        `bson:"date" json:"date"`
	Input         SimulationInput  `bson:"input" json:"input"`
	Output        SimulationOutput `bson:"output" json:"output"`
	EngineVersion string           `bson:"engine_version" json:"engineVersion"`
}

// EngineVersion records which reference tables produced stored results.
type EngineVersion struct {
	Version   string    `bson:"_id" json:"version"`
	LogicHash string    `bson:"logic_hash" json:"logicHash"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
