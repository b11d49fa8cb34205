package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
)

func ptr[T any](v T) *T { return &v }

func validPayload() *models.SimulationInputPayload {
	return &models.SimulationInputPayload{
		InitialWeight: ptr(10.0),
		Quantity:      ptr(1000.0),
		Temperature:   ptr(26.0),
		FeedPrice:     ptr(4.5),
		Weeks:         ptr(12.0),
	}
}

func TestInputValid(t *testing.T) {
	in, err := New().Input(validPayload())
	require.NoError(t, err)
	assert.Equal(t, models.SimulationInput{
		InitialWeight: 10,
		Quantity:      1000,
		Temperature:   26,
		FeedPrice:     4.5,
		Weeks:         12,
	}, in)
}

func TestInputBoundaries(t *testing.T) {
	p := validPayload()
	p.InitialWeight = ptr(0.5)
	p.Quantity = ptr(2000000.0)
	p.Temperature = ptr(40.0)
	p.FeedPrice = ptr(0.0)
	p.Weeks = ptr(52.0)
	p.Phase = ptr("Engorda")

	in, err := New().Input(p)
	require.NoError(t, err)
	assert.Equal(t, "Engorda", in.Phase)
	assert.Zero(t, in.FeedPrice)
}

func TestInputMissing(t *testing.T) {
	_, err := New().Input(nil)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestInputReportsEveryField(t *testing.T) {
	p := &models.SimulationInputPayload{
		InitialWeight: ptr(0.1),
		Quantity:      ptr(0.0),
		Temperature:   ptr(41.0),
		FeedPrice:     ptr(-1.0),
		Weeks:         ptr(53.0),
	}

	_, err := New().Input(p)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{
		{Field: "initialWeight", Message: "Peso mínimo é 0.5g"},
		{Field: "quantity", Message: "Quantidade mínima é 1"},
		{Field: "temperature", Message: "Temperatura máxima é 40°C"},
		{Field: "feedPrice", Message: "Preço não pode ser negativo"},
		{Field: "weeks", Message: "Máximo de 52 semanas"},
	}, verrs)
}

func TestInputRequiredFields(t *testing.T) {
	_, err := New().Input(&models.SimulationInputPayload{FeedPrice: ptr(0.0)})

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"initialWeight", "quantity", "temperature", "weeks"}, fields)
}

func TestInputRejectsFractionalCounts(t *testing.T) {
	p := validPayload()
	p.Quantity = ptr(10.5)
	p.Weeks = ptr(2.25)

	_, err := New().Input(p)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{
		{Field: "quantity", Message: "Quantidade deve ser um número inteiro"},
		{Field: "weeks", Message: "Número de semanas deve ser inteiro"},
	}, verrs)
}

func TestInputAcceptsWholeFloatCounts(t *testing.T) {
	var req models.CalculateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"input":{"initialWeight":10,"quantity":1000.0,"temperature":26,"feedPrice":4.5,"weeks":12.0}}`), &req))

	in, err := New().Input(req.Input)
	require.NoError(t, err)
	assert.Equal(t, 1000, in.Quantity)
	assert.Equal(t, 12, in.Weeks)
}

func TestFromDecodeError(t *testing.T) {
	var req models.CalculateRequest
	err := json.Unmarshal([]byte(`{"input":{"quantity":"many"}}`), &req)
	require.Error(t, err)

	converted := FromDecodeError(err)

	var verrs Errors
	require.True(t, errors.As(converted, &verrs))
	assert.Equal(t, Errors{{Field: "quantity", Message: "Quantidade deve ser um número"}}, verrs)
}

func TestDecodedMergesTypeAndRangeErrors(t *testing.T) {
	var req models.CalculateRequest
	decodeErr := json.Unmarshal([]byte(`{"input":{"initialWeight":0.1,"quantity":"many","temperature":26,"feedPrice":4.5,"weeks":100}}`), &req)
	require.Error(t, decodeErr)

	_, err := New().Decoded(req.Input, decodeErr)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{
		{Field: "initialWeight", Message: "Peso mínimo é 0.5g"},
		{Field: "quantity", Message: "Quantidade deve ser um número"},
		{Field: "weeks", Message: "Máximo de 52 semanas"},
	}, verrs)
}

func TestDecodedTypeErrorOnOtherwiseValidPayload(t *testing.T) {
	var req models.CalculateRequest
	decodeErr := json.Unmarshal([]byte(`{"input":{"initialWeight":10,"quantity":1000,"temperature":26,"feedPrice":"cheap","weeks":4}}`), &req)
	require.Error(t, decodeErr)

	_, err := New().Decoded(req.Input, decodeErr)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{{Field: "feedPrice", Message: "Preço da ração deve ser um número"}}, verrs)
}

func TestDecodedInputOfWrongType(t *testing.T) {
	var req models.CalculateRequest
	decodeErr := json.Unmarshal([]byte(`{"input":5}`), &req)
	require.Error(t, decodeErr)

	_, err := New().Decoded(req.Input, decodeErr)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{{Field: "input", Message: "Entrada deve ser um objeto"}}, verrs)
}

func TestDecodedPassesThroughSyntaxErrors(t *testing.T) {
	var req models.CalculateRequest
	decodeErr := json.Unmarshal([]byte(`{"input":`), &req)
	require.Error(t, decodeErr)

	_, err := New().Decoded(req.Input, decodeErr)
	assert.Same(t, decodeErr, err)
}

func TestFromDecodeErrorPassthrough(t *testing.T) {
	original := errors.New("unexpected EOF")
	assert.Same(t, original, FromDecodeError(original))
}
