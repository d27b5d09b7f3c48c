package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createLoad(t *testing.T, weight float64) LoadResponse {
	t.Helper()
	resp := ts.api.Post("/loads", map[string]any{
		"weight":       weight,
		"country":      "US",
		"manufacturer": "Acme",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[LoadResponse](t, resp)
}

func TestLoads_RoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createLoad(t, 100)

	resp := ts.api.Get("/loads/"+itoa(created.ID), "Accept: application/json")
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, map[string]any{
		"id":           float64(created.ID),
		"weight":       float64(100),
		"country":      "US",
		"manufacturer": "Acme",
		"carrier":      float64(-1),
		"self":         testPublicURL + "/loads/" + itoa(created.ID),
	}, decode[map[string]any](t, resp))
}

func TestLoads_NotAcceptable(t *testing.T) {
	ts := setupTestServer(t)
	l := ts.createLoad(t, 10)

	for _, accept := range []string{"text/html", "application/xml, text/*;q=0.9", "application/json;q=0"} {
		resp := ts.api.Get("/loads/"+itoa(l.ID), "Accept: "+accept)
		assert.Equal(t, http.StatusNotAcceptable, resp.Code, accept)
		assert.Equal(t, msgNotAcceptable, errorMessage(t, resp), accept)
	}

	resp := ts.api.Post("/loads", "Accept: text/plain", map[string]any{"weight": 1})
	assert.Equal(t, http.StatusNotAcceptable, resp.Code)
}

func TestLoads_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	for _, id := range []string{"12", "x1"} {
		resp := ts.api.Get("/loads/" + id)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, msgNoSuchLoad, errorMessage(t, resp))
	}
}

func TestLoads_ReplaceKeepsCarrier(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBoat(t, "alice", "Osprey")
	l := ts.createLoad(t, 10)

	resp := ts.api.Put(fmt.Sprintf("/boats/%d/loads/%d", b.ID, l.ID), ts.bearer(t, "alice"))
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Put("/loads/"+itoa(l.ID), map[string]any{
		"weight": 20, "country": "CA", "manufacturer": "Maple",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	replaced := decode[LoadResponse](t, resp)
	assert.InDelta(t, 20, replaced.Weight, 0)
	assert.Equal(t, "CA", replaced.Country)
	assert.Equal(t, b.ID, replaced.Carrier)

	resp = ts.api.Patch("/loads/"+itoa(l.ID), map[string]any{"manufacturer": "Birch"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	patched := decode[LoadResponse](t, resp)
	assert.Equal(t, "Birch", patched.Manufacturer)
	assert.Equal(t, "CA", patched.Country)
	assert.Equal(t, b.ID, patched.Carrier)

	resp = ts.api.Patch("/loads/"+itoa(l.ID), map[string]any{"weight": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoads_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 6 {
		ts.createLoad(t, float64(i+1))
	}

	resp := ts.api.Get("/loads")
	require.Equal(t, http.StatusOK, resp.Code)
	first := decode[LoadListResponse](t, resp)
	assert.Len(t, first.Items, 5)
	assert.Equal(t, 6, first.Total)
	require.NotEmpty(t, first.Next)

	resp = ts.api.Get(path(t, first.Next))
	require.Equal(t, http.StatusOK, resp.Code)
	second := decode[LoadListResponse](t, resp)
	assert.Len(t, second.Items, 1)
	assert.Empty(t, second.Next)
}

func TestLoads_DeleteRequiresToken(t *testing.T) {
	ts := setupTestServer(t)
	l := ts.createLoad(t, 10)

	resp := ts.api.Delete("/loads/" + itoa(l.ID))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Delete("/loads/"+itoa(l.ID), ts.bearer(t, "alice"))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/loads/" + itoa(l.ID))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
