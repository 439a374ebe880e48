package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func (app *testApp) serviceRequest(path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, strings.NewReader(""))
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestAuditTrail(t *testing.T) {
	app := setupApp(t)
	access, _, userID := app.registerUser(t, "owner@example.com", "password123")

	budgetID := app.createBudget(t, access, "Audited", "PLN")
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/entities", `{"name":"Bakery"}`, access)
	entityID := createdID(t, rec, "entity")
	rec = app.request("DELETE", "/api/v1/budgets/"+budgetID+"/entities/"+entityID, "", access)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete entity failed: %d %s", rec.Code, rec.Body.String())
	}

	t.Run("writes show up newest first", func(t *testing.T) {
		rec := app.serviceRequest("/api/v1/service/audit_logs", testServiceKey)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 3 {
			t.Fatalf("expected 3 audit entries, got %d", len(data))
		}

		actions := make([]string, 0, len(data))
		for _, item := range data {
			entry := item.(map[string]interface{})
			actions = append(actions, entry["action"].(string))
			if entry["user_id"] != userID {
				t.Errorf("expected entries for %s, got %v", userID, entry["user_id"])
			}
		}
		want := []string{"DELETE_ENTITY", "CREATE_ENTITY", "CREATE_BUDGET"}
		for i, action := range want {
			if actions[i] != action {
				t.Errorf("expected %s at index %d, got %s", action, i, actions[i])
			}
		}
	})

	t.Run("create entries carry metadata", func(t *testing.T) {
		rec := app.serviceRequest("/api/v1/service/audit_logs", testServiceKey)
		result := parseJSON(t, rec)
		for _, item := range result["data"].([]interface{}) {
			entry := item.(map[string]interface{})
			if entry["action"] != "CREATE_ENTITY" {
				continue
			}
			metadata, _ := entry["metadata"].(string)
			if !strings.Contains(metadata, "Bakery") {
				t.Errorf("expected entity name in metadata, got %q", metadata)
			}
			return
		}
		t.Fatal("CREATE_ENTITY entry not found")
	})

	t.Run("requires the service key", func(t *testing.T) {
		rec := app.serviceRequest("/api/v1/service/audit_logs", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without key, got %d", rec.Code)
		}

		rec = app.serviceRequest("/api/v1/service/audit_logs", "wrong-key")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for a wrong key, got %d", rec.Code)
		}

		// A user JWT does not open the service surface either.
		rec = app.request("GET", "/api/v1/service/audit_logs", "", access)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for a bearer token, got %d", rec.Code)
		}
	})
}
