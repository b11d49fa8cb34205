package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	client "github.com/mamadbah2/peixeiro/pkg/clients/whatsapp"
)

// ErrSharingDisabled is returned when no WhatsApp account was configured.
var ErrSharingDisabled = errors.New("whatsapp sharing is not configured")

// ErrInvalidRecipient is returned for phone numbers that are not plain digits.
var ErrInvalidRecipient = errors.New("invalid recipient phone number")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	ShareSimulation(ctx context.Context, to string, sim models.Simulation) error
}

// WhatsAppService is the production implementation backed by WhatsApp Cloud API.
type WhatsAppService struct {
	client client.Client
	logger *zap.Logger
}

// NewWhatsAppService wires a new service instance. A nil client disables sharing.
func NewWhatsAppService(c client.Client, logger *zap.Logger) *WhatsAppService {
	svc := &WhatsAppService{
		client: c,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// ShareSimulation sends a feeding plan summary of sim to the given phone number.
func (s *WhatsAppService) ShareSimulation(ctx context.Context, to string, sim models.Simulation) error {
	if s.client == nil {
		return ErrSharingDisabled
	}

	recipient := normalizeRecipient(to)
	if recipient == "" {
		return ErrInvalidRecipient
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   recipient,
		Body: FormatSummary(sim),
	})
	if err != nil {
		return fmt.Errorf("share simulation %s: %w", sim.ID, err)
	}

	s.logger.Info("simulation shared", zap.String("id", sim.ID), zap.String("to", recipient))
	return nil
}

// FormatSummary renders the feeding recommendation and projection outcome as a
// WhatsApp message.
func FormatSummary(sim models.Simulation) string {
	out := sim.Output
	in := sim.Input

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", sim.Name)
	fmt.Fprintf(&b, "Lote: %d peixes de %s g a %s °C\n", in.Quantity, decimal(in.InitialWeight), decimal(in.Temperature))
	fmt.Fprintf(&b, "Biomassa: %s kg\n", decimal(out.Biomass))
	fmt.Fprintf(&b, "Ração: %s\n", out.FeedType)
	fmt.Fprintf(&b, "Tratos por dia: %d (%d g por trato)\n", out.DailyFeedings, out.FeedPerFeeding)
	fmt.Fprintf(&b, "Consumo diário: %s kg (R$ %s/dia)\n", decimal(out.DailyFeed), decimal(out.DailyCost))
	if n := len(out.Projections); n > 0 {
		last := out.Projections[n-1]
		var totalCost float64
		for _, p := range out.Projections {
			totalCost += p.Cost
		}
		fmt.Fprintf(&b, "Em %d semanas: peso médio %s g, ração %s kg, custo R$ %s\n",
			last.Week, decimal(last.AverageWeight), decimal(last.AccumulatedConsumption), decimal(totalCost))
	}
	fmt.Fprintf(&b, "CA estimada: %s", decimal(out.FCR))
	return b.String()
}

// decimal formats with two places and a decimal comma.
func decimal(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

func normalizeRecipient(to string) string {
	var b strings.Builder
	for _, r := range to {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return ""
		}
	}
	if b.Len() < 8 {
		return ""
	}
	return b.String()
}
