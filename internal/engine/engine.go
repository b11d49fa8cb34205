// Package engine projects tilapia growth, feed consumption and feed cost from the
// growth-stage and temperature reference tables.
//
// Simulate is a pure function: it keeps no state between calls and is safe for
// concurrent use. Inputs are expected to be validated by the caller; the engine
// clamps out-of-table weights and temperatures instead of failing.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
)

// Version identifies the reference tables and formulas below. Bump it whenever
// either table or the weekly step changes so stored results stay attributable.
const Version = "1.0.0"

const daysPerWeek = 7

// LookupStage returns the band with the greatest StartWeight not above weight.
// Weights below the first band resolve to the first band.
func LookupStage(weight float64) GrowthStage {
	if math.IsNaN(weight) {
		return growthStages[0]
	}
	idx := sort.Search(len(growthStages), func(i int) bool {
		return growthStages[i].StartWeight > weight
	})
	if idx == 0 {
		return growthStages[0]
	}
	return growthStages[idx-1]
}

// TemperatureFactor returns the growth multiplier for a water temperature in °C.
func TemperatureFactor(celsius float64) float64 {
	rounded := math.Round(celsius)
	for _, c := range temperatureCorrections {
		if float64(c.Celsius) == rounded {
			return c.Factor
		}
	}

	lowest := temperatureCorrections[0]
	highest := temperatureCorrections[len(temperatureCorrections)-1]
	if celsius < float64(lowest.Celsius) {
		return lowest.Factor
	}
	if celsius > float64(highest.Celsius) {
		return highest.Factor
	}

	for i := 0; i < len(temperatureCorrections)-1; i++ {
		lo, hi := temperatureCorrections[i], temperatureCorrections[i+1]
		t1, t2 := float64(lo.Celsius), float64(hi.Celsius)
		if celsius >= t1 && celsius <= t2 {
			return lo.Factor + (hi.Factor-lo.Factor)*(celsius-t1)/(t2-t1)
		}
	}
	return 1.0
}

// Simulate computes the immediate feeding recommendation for the current state and
// steps the population forward one week at a time for input.Weeks weeks.
func Simulate(input models.SimulationInput) models.SimulationOutput {
	quantity := float64(input.Quantity)
	factor := TemperatureFactor(input.Temperature)

	currentWeight := input.InitialWeight
	accumulatedFeed := 0.0

	weeks := input.Weeks
	if weeks < 0 {
		weeks = 0
	}
	projections := make([]models.WeeklyProjection, 0, weeks)

	for w := 1; w <= weeks; w++ {
		stage := LookupStage(currentWeight)

		startBiomass := currentWeight * quantity / 1000
		gain := (stage.EndWeight - stage.StartWeight) * factor
		endWeight := currentWeight + gain
		endBiomass := endWeight * quantity / 1000

		averageBiomass := (startBiomass + endBiomass) / 2
		weekFeed := averageBiomass * stage.DailyConsumption * daysPerWeek
		accumulatedFeed += weekFeed
		weekCost := weekFeed * input.FeedPrice

		projections = append(projections, models.WeeklyProjection{
			Week:                   w,
			AverageWeight:          round2(endWeight),
			FeedConsumption:        round2(weekFeed),
			AccumulatedConsumption: round2(accumulatedFeed),
			Biomass:                round2(endBiomass),
			Cost:                   round2(weekCost),
		})

		currentWeight = endWeight
	}

	// Immediate values use the matched band's bounds, not the input weight.
	start := LookupStage(input.InitialWeight)
	startBiomass := start.StartWeight * quantity / 1000
	endBiomass := start.EndWeight * quantity / 1000
	dailyFeed := (startBiomass + endBiomass) / 2 * start.DailyConsumption
	feedPerFeeding := int(math.Round(dailyFeed / float64(start.FeedingsPerDay) * 1000))

	fcr := 0.0
	if gainKg := (currentWeight - input.InitialWeight) * quantity / 1000; gainKg > 0 {
		fcr = accumulatedFeed / gainKg
	}

	return models.SimulationOutput{
		Biomass:        round2(startBiomass),
		DailyFeed:      round2(dailyFeed),
		DailyFeedings:  start.FeedingsPerDay,
		FeedPerFeeding: feedPerFeeding,
		FeedType:       start.FeedType,
		DailyCost:      round2(dailyFeed * input.FeedPrice),
		FCR:            round2(fcr),
		Projections:    projections,
	}
}

// Fingerprint hashes both reference tables so a deployment can detect table edits
// that were not accompanied by a Version bump.
func Fingerprint() string {
	h := sha256.New()
	for _, s := range growthStages {
		fmt.Fprintf(h, "g|%g|%g|%g|%d|%s\n", s.StartWeight, s.EndWeight, s.DailyConsumption, s.FeedingsPerDay, s.FeedType)
	}
	for _, c := range temperatureCorrections {
		fmt.Fprintf(h, "t|%d|%g\n", c.Celsius, c.Factor)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// round2 rounds half away from zero to two decimals. All engine outputs are
// non-negative, so this matches round-half-up.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
