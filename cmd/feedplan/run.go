package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	"github.com/mamadbah2/peixeiro/internal/service/export"
	"github.com/mamadbah2/peixeiro/internal/service/simulation"
	"github.com/mamadbah2/peixeiro/internal/validation"
	"github.com/mamadbah2/peixeiro/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 2
)

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("feedplan", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	weight := fs.Float64("weight", 0, "Initial average weight per fish in grams")
	quantity := fs.Int("quantity", 0, "Number of fish in the batch")
	temperature := fs.Float64("temperature", 0, "Water temperature in Celsius")
	price := fs.Float64("price", 0, "Feed price per kg")
	weeks := fs.Int("weeks", 0, "Number of weeks to project (1-52)")
	format := fs.String("format", "table", "Output format: table, json or csv")
	logLevel := fs.String("log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitInvalid
	}

	log, err := logger.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(stderr, "invalid log level: %v\n", err)
		return exitInvalid
	}
	defer func() { _ = log.Sync() }()

	switch *format {
	case "table", "json", "csv":
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return exitInvalid
	}

	payload := &models.SimulationInputPayload{}
	if fs.Changed("weight") {
		payload.InitialWeight = weight
	}
	if fs.Changed("quantity") {
		q := float64(*quantity)
		payload.Quantity = &q
	}
	if fs.Changed("temperature") {
		payload.Temperature = temperature
	}
	if fs.Changed("price") {
		payload.FeedPrice = price
	}
	if fs.Changed("weeks") {
		w := float64(*weeks)
		payload.Weeks = &w
	}

	input, err := validation.New().Input(payload)
	if err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				fmt.Fprintf(stderr, "--%s: %s\n", flagName(fe.Field), fe.Message)
			}
			return exitInvalid
		}
		log.Error("validation failed", zap.Error(err))
		return exitFailure
	}

	result := simulation.NewService(nil, nil, log.Named("svc.simulation")).Calculate(input)

	switch *format {
	case "json":
		err = writeJSON(stdout, result)
	case "csv":
		err = export.WriteProjectionsCSV(stdout, result.Output.Projections)
	default:
		err = writeTable(stdout, input, result)
	}
	if err != nil {
		log.Error("failed writing output", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

func flagName(field string) string {
	switch field {
	case "initialWeight":
		return "weight"
	case "feedPrice":
		return "price"
	default:
		return field
	}
}

func writeJSON(w io.Writer, result models.CalculateResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeTable(w io.Writer, input models.SimulationInput, result models.CalculateResponse) error {
	out := result.Output
	fmt.Fprintf(w, "Engine %s\n", result.EngineVersion)
	fmt.Fprintf(w, "Batch: %d fish at %.2f g, %.1f °C\n", input.Quantity, input.InitialWeight, input.Temperature)
	fmt.Fprintf(w, "Biomass: %.2f kg\n", out.Biomass)
	fmt.Fprintf(w, "Feed: %s\n", out.FeedType)
	fmt.Fprintf(w, "Daily feed: %.2f kg in %d feedings of %d g\n", out.DailyFeed, out.DailyFeedings, out.FeedPerFeeding)
	fmt.Fprintf(w, "Daily cost: %.2f\n", out.DailyCost)
	fmt.Fprintf(w, "FCR: %.2f\n\n", out.FCR)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "week\tweight (g)\tfeed (kg)\taccumulated (kg)\tbiomass (kg)\tcost\t")
	for _, p := range out.Projections {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			p.Week, p.AverageWeight, p.FeedConsumption, p.AccumulatedConsumption, p.Biomass, p.Cost)
	}
	return tw.Flush()
}
