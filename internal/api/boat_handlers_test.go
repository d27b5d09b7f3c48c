package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/validation"
)

func (ts *testServer) createBoat(t *testing.T, sub, name string) BoatResponse {
	t.Helper()
	resp := ts.api.Post("/boats", ts.bearer(t, sub), map[string]any{
		"name":   name,
		"type":   "Sloop",
		"length": 28,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[BoatResponse](t, resp)
}

func TestBoats_AuthBeforeAccept(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/boats", "Accept: text/html")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, msgInvalidToken, errorMessage(t, resp))

	resp = ts.api.Get("/boats", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/boats", ts.bearer(t, "alice"), "Accept: text/html")
	assert.Equal(t, http.StatusNotAcceptable, resp.Code)
	assert.Equal(t, msgNotAcceptable, errorMessage(t, resp))
}

func TestBoats_CreateAndGet(t *testing.T) {
	ts := setupTestServer(t)

	created := ts.createBoat(t, "alice", "Osprey")
	assert.Equal(t, "Osprey", created.Name)
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, []int64{}, created.Loads)
	assert.Equal(t, testPublicURL+"/boats/"+itoa(created.ID), created.Self)

	resp := ts.api.Get(path(t, created.Self), ts.bearer(t, "alice"), "Accept: application/json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created, decode[BoatResponse](t, resp))

	raw := decode[map[string]any](t, resp)
	assert.Equal(t, []any{}, raw["loads"])
}

func TestBoats_CreateValidation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing length", map[string]any{"name": "Osprey", "type": "Sloop"}},
		{"blank name", map[string]any{"name": "  ", "type": "Sloop", "length": 10}},
		{"negative length", map[string]any{"name": "Osprey", "type": "Sloop", "length": -3}},
		{"wrong type", map[string]any{"name": "Osprey", "type": "Sloop", "length": "long"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/boats", ts.bearer(t, "alice"), tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.True(t, strings.HasPrefix(errorMessage(t, resp), validation.MissingAttributesMessage))
		})
	}
}

func TestBoats_ValidationDetails(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/boats", ts.bearer(t, "alice"), map[string]any{
		"name":   "  ",
		"type":   "\t",
		"length": 10,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	body := decode[struct {
		Error   string            `json:"Error"`
		Details map[string]string `json:"details"`
	}](t, resp)
	assert.Equal(t, validation.MissingAttributesMessage+": name is required, type is required", body.Error)
	assert.Equal(t, map[string]string{"name": "is required", "type": "is required"}, body.Details)

	resp = ts.api.Get("/boats/"+itoa(ts.createBoat(t, "alice", "Osprey").ID+1000), ts.bearer(t, "alice"))
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.NotContains(t, resp.Body.String(), "details")
}

func TestBoats_OtherOwnerIsNotFound(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBoat(t, "alice", "Osprey")

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		resp := ts.api.Do(method, "/boats/"+itoa(b.ID), ts.bearer(t, "bob"), map[string]any{"name": "Mine"})
		assert.Equal(t, http.StatusNotFound, resp.Code, method)
		assert.Equal(t, msgNoSuchBoat, errorMessage(t, resp), method)
	}

	resp := ts.api.Get("/boats/"+itoa(b.ID), ts.bearer(t, "alice"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Osprey", decode[BoatResponse](t, resp).Name)
}

func TestBoats_ClosedStoreIsUnavailable(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBoat(t, "alice", "Osprey")
	require.NoError(t, ts.store.Close())

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"get", http.MethodGet, "/boats/" + itoa(b.ID)},
		{"list", http.MethodGet, "/boats"},
		{"delete", http.MethodDelete, "/boats/" + itoa(b.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Do(tt.method, tt.path, ts.bearer(t, "alice"))
			assert.Equal(t, http.StatusServiceUnavailable, resp.Code, resp.Body.String())

			body := decode[map[string]any](t, resp)
			assert.Len(t, body, 1)
			assert.NotEmpty(t, body["Error"])
			assert.NotEqual(t, msgNoSuchBoat, body["Error"])
		})
	}
}

func TestBoats_InvalidID(t *testing.T) {
	ts := setupTestServer(t)

	for _, id := range []string{"abc", "0", "-4", "99"} {
		resp := ts.api.Get("/boats/"+id, ts.bearer(t, "alice"))
		assert.Equal(t, http.StatusNotFound, resp.Code, id)
		assert.Equal(t, msgNoSuchBoat, errorMessage(t, resp), id)
	}
}

func TestBoats_ReplaceAndPatch(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBoat(t, "alice", "Osprey")
	load := ts.createLoad(t, 100)

	resp := ts.api.Put(fmt.Sprintf("/boats/%d/loads/%d", b.ID, load.ID), ts.bearer(t, "alice"))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Put("/boats/"+itoa(b.ID), ts.bearer(t, "alice"), map[string]any{
		"name": "Heron", "type": "Ketch", "length": 40,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	replaced := decode[BoatResponse](t, resp)
	assert.Equal(t, "Heron", replaced.Name)
	assert.Equal(t, "Ketch", replaced.Type)
	assert.InDelta(t, 40, replaced.Length, 0)
	assert.Equal(t, []int64{load.ID}, replaced.Loads)

	resp = ts.api.Patch("/boats/"+itoa(b.ID), ts.bearer(t, "alice"), map[string]any{"length": 42.5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	patched := decode[BoatResponse](t, resp)
	assert.Equal(t, "Heron", patched.Name)
	assert.Equal(t, "Ketch", patched.Type)
	assert.InDelta(t, 42.5, patched.Length, 0)
	assert.Equal(t, []int64{load.ID}, patched.Loads)

	resp = ts.api.Put("/boats/"+itoa(b.ID), ts.bearer(t, "alice"), map[string]any{"name": "Heron"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBoats_Delete(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBoat(t, "alice", "Osprey")

	resp := ts.api.Delete("/boats/"+itoa(b.ID), "Accept: text/html")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Delete("/boats/"+itoa(b.ID), ts.bearer(t, "alice"))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())

	resp = ts.api.Get("/boats/"+itoa(b.ID), ts.bearer(t, "alice"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBoats_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 7 {
		ts.createBoat(t, "alice", fmt.Sprintf("Boat %d", i))
	}
	ts.createBoat(t, "bob", "Not Alice's")

	resp := ts.api.Get("/boats", ts.bearer(t, "alice"))
	require.Equal(t, http.StatusOK, resp.Code)
	first := decode[BoatListResponse](t, resp)
	assert.Len(t, first.Items, 5)
	assert.Equal(t, 7, first.Total)
	require.NotEmpty(t, first.Next)
	assert.True(t, strings.HasPrefix(first.Next, testPublicURL+"/boats?cursor="))

	resp = ts.api.Get(path(t, first.Next), ts.bearer(t, "alice"))
	require.Equal(t, http.StatusOK, resp.Code)
	second := decode[BoatListResponse](t, resp)
	assert.Len(t, second.Items, 2)
	assert.Equal(t, 7, second.Total)
	assert.Empty(t, second.Next)
	assert.NotContains(t, resp.Body.String(), `"next"`)

	seen := map[int64]bool{}
	for _, b := range append(first.Items, second.Items...) {
		assert.Equal(t, "alice", b.Owner)
		assert.False(t, seen[b.ID], "boat %d listed twice", b.ID)
		seen[b.ID] = true
	}
}

func TestBoats_InvalidCursor(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/boats?cursor=%21%21not-a-cursor", ts.bearer(t, "alice"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
