package integration

import (
	"net/http"
	"testing"
)

func TestBudgetLifecycle(t *testing.T) {
	app := setupApp(t)
	access, _, _ := app.registerUser(t, "owner@example.com", "password123")

	t.Run("create, list, update, delete", func(t *testing.T) {
		budgetID := app.createBudget(t, access, "Household", "PLN")

		rec := app.request("GET", "/api/v1/budgets", "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_items"].(float64) != 1 {
			t.Fatalf("expected 1 budget, got %v", result["total_items"])
		}

		rec = app.request("PUT", "/api/v1/budgets/"+budgetID, `{"name":"Family"}`, access)
		if rec.Code != http.StatusOK {
			t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["name"] != "Family" {
			t.Errorf("expected renamed budget, got %v", budget["name"])
		}

		rec = app.request("DELETE", "/api/v1/budgets/"+budgetID, "", access)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", access)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", rec.Code)
		}
	})

	t.Run("duplicate name per owner rejected", func(t *testing.T) {
		app.createBudget(t, access, "Vacation", "EUR")

		rec := app.request("POST", "/api/v1/budgets", `{"name":"Vacation","currency":"EUR"}`, access)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "DUPLICATE_BUDGET_NAME" {
			t.Errorf("expected DUPLICATE_BUDGET_NAME, got %s", code)
		}
	})

	t.Run("reserved categories are seeded", func(t *testing.T) {
		budgetID := app.createBudget(t, access, "Seeded", "PLN")

		// The generated deposit categories exist for mirror legs but stay
		// hidden from the listing.
		rec := app.request("GET", "/api/v1/budgets/"+budgetID+"/categories", "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("list categories failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		for _, item := range result["data"].([]interface{}) {
			category := item.(map[string]interface{})
			priority := category["priority"].(float64)
			if priority == 7 || priority == 8 {
				t.Errorf("reserved category %v leaked into the listing", category["name"])
			}
		}
	})
}

func TestBudgetMembership(t *testing.T) {
	app := setupApp(t)
	ownerToken, _, ownerID := app.registerUser(t, "owner@example.com", "password123")
	memberToken, _, memberID := app.registerUser(t, "member@example.com", "password123")
	strangerToken, _, _ := app.registerUser(t, "stranger@example.com", "password123")

	budgetID := app.createBudget(t, ownerToken, "Shared", "PLN")
	base := "/api/v1/budgets/" + budgetID

	t.Run("non-members cannot see the budget", func(t *testing.T) {
		rec := app.request("GET", base, "", strangerToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "BUDGET_ACCESS_DENIED" {
			t.Errorf("expected BUDGET_ACCESS_DENIED, got %s", code)
		}
	})

	t.Run("owner adds a member by email", func(t *testing.T) {
		rec := app.request("POST", base+"/members", `{"email":"member@example.com"}`, ownerToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add member failed: %d %s", rec.Code, rec.Body.String())
		}
		member := parseJSON(t, rec)["member"].(map[string]interface{})
		if member["user_id"] != memberID {
			t.Errorf("expected member %s, got %v", memberID, member["user_id"])
		}

		// The member can now read and write in the budget.
		rec = app.request("GET", base, "", memberToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("member read failed: %d %s", rec.Code, rec.Body.String())
		}
		rec = app.request("POST", base+"/entities", `{"name":"Bakery"}`, memberToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("member write failed: %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("only the owner manages members", func(t *testing.T) {
		rec := app.request("POST", base+"/members", `{"email":"stranger@example.com"}`, memberToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		rec := app.request("DELETE", base+"/members/"+ownerID, "", ownerToken)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "OWNER_REMOVAL" {
			t.Errorf("expected OWNER_REMOVAL, got %s", code)
		}
	})

	t.Run("removed member loses access", func(t *testing.T) {
		rec := app.request("DELETE", base+"/members/"+memberID, "", ownerToken)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("remove member failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", base, "", memberToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 after removal, got %d", rec.Code)
		}
	})
}
