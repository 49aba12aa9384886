package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/voxkit/flowsync/pkg/client"
	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/store"
)

func putFlow(t *testing.T, app *fiber.App, path string, sr client.SaveRequest) client.EngineState {
	t.Helper()
	body, err := json.Marshal(sr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var state client.EngineState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return state
}

func getFlow(t *testing.T, app *fiber.App, path string) client.EngineState {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var state client.EngineState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return state
}

func TestServe_AbsentAgentExistsFalse(t *testing.T) {
	app := newServer(store.NewMemory())
	state := getFlow(t, app, "/agents/ghost/flow")
	if state.Exists {
		t.Error("unknown agent must report exists=false")
	}
	if state.Flow != nil {
		t.Error("no document expected")
	}
}

func TestServe_PutThenGetBumpsVersion(t *testing.T) {
	app := newServer(store.NewMemory())

	first := putFlow(t, app, "/agents/a1/flow", client.SaveRequest{
		Flow:       flow.NewTemplate(),
		EngineType: flow.EngineFlow,
	})
	if !first.Exists || first.Flow == nil || first.Flow.Version != 1 {
		t.Fatalf("first put = %+v", first)
	}

	second := putFlow(t, app, "/agents/a1/flow", client.SaveRequest{
		Flow:       flow.NewTemplate(),
		EngineType: flow.EngineFlow,
	})
	if second.Flow.Version != 2 {
		t.Errorf("version = %d, want 2", second.Flow.Version)
	}

	got := getFlow(t, app, "/agents/a1/flow")
	if got.Flow == nil || got.Flow.Version != 2 {
		t.Errorf("get = %+v", got.Flow)
	}
}

func TestServe_LegacyAgentStaysLegacyOnTheWire(t *testing.T) {
	app := newServer(store.NewMemory())
	legacy := json.RawMessage(`{"prompt":"You are a receptionist."}`)

	put := putFlow(t, app, "/agents/a1/flow", client.SaveRequest{
		Flow:             flow.LiftLegacy(&flow.LegacyEngine{Prompt: "You are a receptionist."}),
		EngineType:       flow.EngineLegacy,
		LegacyEngineData: legacy,
	})
	if put.Flow != nil {
		t.Error("legacy envelope must not carry a flow document")
	}
	if len(put.LegacyEngineData) == 0 || put.EngineType != flow.EngineLegacy {
		t.Errorf("envelope = %+v", put)
	}

	got := getFlow(t, app, "/agents/a1/flow")
	if got.Flow != nil {
		t.Error("reloaded legacy agent must still be legacy-only")
	}
	if len(got.LegacyEngineData) == 0 {
		t.Error("legacy payload missing on reload")
	}
}
