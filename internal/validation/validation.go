// Package validation checks simulation input at the HTTP and CLI boundary before it
// reaches the engine.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
)

const inputField = "input"

// ErrMissingInput is returned when the request carries no input object at all.
var ErrMissingInput = errors.New("missing input payload")

// Errors lists every field that failed validation.
type Errors []models.FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// messages holds the user-facing text per field and rule.
var messages = map[string]map[string]string{
	"initialWeight": {
		"required": "Peso inicial é obrigatório",
		"gte":      "Peso mínimo é 0.5g",
		"lte":      "Peso máximo é 200kg",
		"type":     "Peso inicial deve ser um número",
	},
	"quantity": {
		"required": "Quantidade é obrigatória",
		"gte":      "Quantidade mínima é 1",
		"lte":      "Quantidade máxima é 2 milhões",
		"integer":  "Quantidade deve ser um número inteiro",
		"type":     "Quantidade deve ser um número",
	},
	"temperature": {
		"required": "Temperatura é obrigatória",
		"gte":      "Temperatura mínima é 10°C",
		"lte":      "Temperatura máxima é 40°C",
		"type":     "Temperatura deve ser um número",
	},
	"feedPrice": {
		"required": "Preço da ração é obrigatório",
		"gte":      "Preço não pode ser negativo",
		"lte":      "Preço máximo é R$ 10.000",
		"type":     "Preço da ração deve ser um número",
	},
	"weeks": {
		"required": "Número de semanas é obrigatório",
		"gte":      "Mínimo de 1 semana",
		"lte":      "Máximo de 52 semanas",
		"integer":  "Número de semanas deve ser inteiro",
		"type":     "Número de semanas deve ser um número",
	},
	"phase": {
		"type": "Fase deve ser um texto",
	},
	inputField: {
		"type": "Entrada deve ser um objeto",
	},
}

// Validator wraps a go-playground validator configured to report JSON field names.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("integer", isInteger)
	return &Validator{v: v}
}

// isInteger accepts whole numbers, including floats such as 10.0.
func isInteger(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// Input validates a payload and returns the engine input. A nil payload yields
// ErrMissingInput; range violations yield Errors covering every failed field.
func (val *Validator) Input(payload *models.SimulationInputPayload) (models.SimulationInput, error) {
	if payload == nil {
		return models.SimulationInput{}, ErrMissingInput
	}

	if err := val.v.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.SimulationInput{}, fmt.Errorf("validate input: %w", err)
		}
		out := make(Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, models.FieldError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag())})
		}
		return models.SimulationInput{}, out
	}

	return payload.ToInput(), nil
}

// Decoded validates a payload that came out of a JSON decode which returned
// decodeErr. A type mismatch does not stop decoding, so the remaining fields are
// still checked and reported alongside it. Any other decode error is returned
// unchanged.
func (val *Validator) Decoded(payload *models.SimulationInputPayload, decodeErr error) (models.SimulationInput, error) {
	if decodeErr == nil {
		return val.Input(payload)
	}

	var typeErrs Errors
	if !errors.As(FromDecodeError(decodeErr), &typeErrs) {
		return models.SimulationInput{}, decodeErr
	}
	// The decoder allocates an empty payload when input itself has the wrong type.
	if typeErrs[0].Field == inputField {
		return models.SimulationInput{}, typeErrs
	}

	_, err := val.Input(payload)
	var rangeErrs Errors
	if !errors.As(err, &rangeErrs) {
		return models.SimulationInput{}, typeErrs
	}
	return models.SimulationInput{}, merge(rangeErrs, typeErrs)
}

// merge lays typed over ranged, one entry per field, keeping ranged's order.
func merge(ranged, typed Errors) Errors {
	byField := make(map[string]models.FieldError, len(typed))
	for _, fe := range typed {
		byField[fe.Field] = fe
	}

	out := make(Errors, 0, len(ranged)+len(typed))
	for _, fe := range ranged {
		if te, ok := byField[fe.Field]; ok {
			out = append(out, te)
			delete(byField, fe.Field)
			continue
		}
		out = append(out, fe)
	}
	for _, fe := range typed {
		if _, ok := byField[fe.Field]; ok {
			out = append(out, fe)
		}
	}
	return out
}

// FromDecodeError converts a JSON type mismatch (for example a quantity sent as
// text) into a field error. Other decode errors are returned unchanged.
func FromDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return err
	}

	field := typeErr.Field
	if idx := strings.LastIndex(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	return Errors{{Field: field, Message: message(field, "type")}}
}

func message(field, tag string) string {
	if byTag, ok := messages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
