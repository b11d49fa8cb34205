package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	"github.com/mamadbah2/peixeiro/internal/engine"
	"github.com/mamadbah2/peixeiro/internal/repository/memory"
	"github.com/mamadbah2/peixeiro/internal/server/handlers"
	"github.com/mamadbah2/peixeiro/internal/server/router"
	"github.com/mamadbah2/peixeiro/internal/service/export"
	"github.com/mamadbah2/peixeiro/internal/service/sharing"
	"github.com/mamadbah2/peixeiro/internal/service/simulation"
	"github.com/mamadbah2/peixeiro/pkg/metrics"
)

const validInput = `{"initialWeight":10,"quantity":1000,"temperature":26,"feedPrice":4.5,"weeks":12}`

type fakeSheets struct {
	rows [][]interface{}
}

func (f *fakeSheets) AppendRows(_ context.Context, _ string, rows [][]interface{}) (int, error) {
	f.rows = append(f.rows, rows...)
	return len(rows), nil
}

type fakeSharer struct {
	to  string
	sim models.Simulation
	err error
}

func (f *fakeSharer) ShareSimulation(_ context.Context, to string, sim models.Simulation) error {
	f.to = to
	f.sim = sim
	return f.err
}

type testEnv struct {
	router    http.Handler
	collector *metrics.Collector
	sheets    *fakeSheets
	sharer    *fakeSharer
}

func newTestEnv(t *testing.T, withIntegrations bool) *testEnv {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg)
	svc := simulation.NewService(memory.NewRepository(), collector, nil)

	env := &testEnv{collector: collector}
	var sharer sharing.MessagingService
	exporter := export.NewService(nil, nil)
	if withIntegrations {
		env.sheets = &fakeSheets{}
		env.sharer = &fakeSharer{}
		exporter = export.NewService(env.sheets, nil)
		sharer = env.sharer
	}

	h := handlers.NewSimulationHandler(svc, exporter, sharer, collector, nil)
	env.router = router.New(h, collector, reg, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(handlers.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (e *testEnv) save(t *testing.T, userID, name string) models.Simulation {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/simulations", userID, `{"name":"`+name+`","input":`+validInput+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sim models.Simulation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sim))
	return sim
}

func TestCalculate(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "", `{"input":`+validInput+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, engine.Version, resp.EngineVersion)
	assert.Equal(t, 9.0, resp.Output.Biomass)
	assert.Equal(t, 163, resp.Output.FeedPerFeeding)
	assert.Equal(t, 1.35, resp.Output.FCR)
	require.Len(t, resp.Output.Projections, 12)
	assert.Equal(t, 317.0, resp.Output.Projections[11].AverageWeight)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCalculateMissingInput(t *testing.T) {
	env := newTestEnv(t, false)

	for _, body := range []string{"", `{}`, `{"input":null}`} {
		rec := env.do(t, http.MethodPost, "/api/calculate", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Missing input payload", decodeError(t, rec).Message, body)
	}
}

func TestCalculateInvalidInput(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "",
		`{"input":{"initialWeight":0.1,"quantity":1000,"temperature":26,"feedPrice":4.5,"weeks":60}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Invalid input", body.Message)
	fields := fieldMessages(body.Errors)
	assert.Equal(t, "Peso mínimo é 0.5g", fields["initialWeight"])
	assert.Equal(t, "Máximo de 52 semanas", fields["weeks"])
	assert.Len(t, fields, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.collector.ValidationFailuresTotal.WithLabelValues("weeks")))
}

func fieldMessages(errs []models.FieldError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestCalculateFractionalQuantity(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "",
		`{"input":{"initialWeight":0.1,"quantity":10.5,"temperature":26,"feedPrice":4.5,"weeks":100}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Invalid input", body.Message)
	assert.Equal(t, map[string]string{
		"initialWeight": "Peso mínimo é 0.5g",
		"quantity":      "Quantidade deve ser um número inteiro",
		"weeks":         "Máximo de 52 semanas",
	}, fieldMessages(body.Errors))
}

func TestCalculateTypeMismatchKeepsOtherErrors(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "",
		`{"input":{"initialWeight":10,"quantity":"muitos","temperature":45,"feedPrice":4.5,"weeks":0}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Len(t, body.Errors, 3)
	assert.Equal(t, map[string]string{
		"quantity":    "Quantidade deve ser um número",
		"temperature": "Temperatura máxima é 40°C",
		"weeks":       "Mínimo de 1 semana",
	}, fieldMessages(body.Errors))
}

func TestCalculateAcceptsWholeFloatCounts(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "",
		`{"input":{"initialWeight":10,"quantity":1000.0,"temperature":26,"feedPrice":4.5,"weeks":12.0}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 163, resp.Output.FeedPerFeeding)
	assert.Len(t, resp.Output.Projections, 12)
}

func TestCalculateMalformedJSON(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/calculate", "", `{"input":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec).Message)
}

func TestSimulationsRequireUser(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/simulations", "", `{"name":"x","input":`+validInput+`}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/simulations/user-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSaveListDelete(t *testing.T) {
	env := newTestEnv(t, false)

	first := env.save(t, "user-1", "Tanque 1")
	assert.Equal(t, "user-1", first.UserID)
	assert.Equal(t, engine.Version, first.EngineVersion)
	assert.Len(t, first.Output.Projections, 12)
	env.save(t, "user-1", "Tanque 2")
	env.save(t, "user-2", "Outro")

	rec := env.do(t, http.MethodGet, "/api/simulations/user-1", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sims []models.Simulation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sims))
	require.Len(t, sims, 2)

	rec = env.do(t, http.MethodGet, "/api/simulations/user-1", "user-2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/simulations/"+first.ID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/simulations/"+first.ID, "user-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/simulations/"+first.ID, "user-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/simulations/user-3", "user-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSaveRejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/simulations", "user-1", `{"name":"  ","input":`+validInput+`}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "name", body.Errors[0].Field)

	rec = env.do(t, http.MethodPost, "/api/simulations", "user-1", `{"name":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing input payload", decodeError(t, rec).Message)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, false)
	sim := env.save(t, "user-1", "Tanque 1")

	rec := env.do(t, http.MethodGet, "/api/simulations/user-1/"+sim.ID+"/projections.csv", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "week,average_weight_g,feed_consumption_kg,accumulated_consumption_kg,biomass_kg,cost", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,15,7.44,"), lines[1])

	rec = env.do(t, http.MethodGet, "/api/simulations/user-1/"+sim.ID+"/projections.csv", "user-2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/simulations/user-1/missing/projections.csv", "user-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntegrationsDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	sim := env.save(t, "user-1", "Tanque 1")

	rec := env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/sheets", "user-1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/share", "user-1", `{"to":"5511999990000"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportSheets(t *testing.T) {
	env := newTestEnv(t, true)
	sim := env.save(t, "user-1", "Tanque 1")

	rec := env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/sheets", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rows":12}`, rec.Body.String())
	require.Len(t, env.sheets.rows, 12)
	assert.Equal(t, sim.ID, env.sheets.rows[0][0])

	rec = env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/sheets", "user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShare(t *testing.T) {
	env := newTestEnv(t, true)
	sim := env.save(t, "user-1", "Tanque 1")

	rec := env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/share", "user-1", `{"to":"5511999990000"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "5511999990000", env.sharer.to)
	assert.Equal(t, sim.ID, env.sharer.sim.ID)

	rec = env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/share", "user-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.sharer.err = sharing.ErrInvalidRecipient
	rec = env.do(t, http.MethodPost, "/api/simulations/"+sim.ID+"/share", "user-1", `{"to":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "to", decodeError(t, rec).Errors[0].Field)
}

func TestEngineAndHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/engine", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, engine.Version, info["version"])
	assert.Equal(t, engine.Fingerprint(), info["logicHash"])

	rec = env.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Contains(t, health, "timestamp")
	assert.Contains(t, health, "uptime")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(t, http.MethodPost, "/api/calculate", "", `{"input":`+validInput+`}`)

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_simulations_total")
	assert.Contains(t, rec.Body.String(), `path="/api/calculate"`)
}
