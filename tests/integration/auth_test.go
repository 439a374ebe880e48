package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestRegistrationAndLogin(t *testing.T) {
	app := setupApp(t)

	t.Run("register then login", func(t *testing.T) {
		access, refresh, userID := app.registerUser(t, "anna@example.com", "password123")
		if access == "" || refresh == "" {
			t.Fatal("expected both tokens on registration")
		}
		if userID == "" {
			t.Fatal("expected user ID on registration")
		}

		access2, refresh2 := app.loginUser(t, "anna@example.com", "password123")
		if access2 == "" || refresh2 == "" {
			t.Fatal("expected both tokens on login")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		app.registerUser(t, "bob@example.com", "password123")

		body := `{"email":"bob@example.com","password":"password123"}`
		rec := app.request("POST", "/api/v1/auth/register", body, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
			t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		app.registerUser(t, "carol@example.com", "password123")

		body := `{"email":"carol@example.com","password":"wrong-password"}`
		rec := app.request("POST", "/api/v1/auth/login", body, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
			t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
		}
	})
}

func TestTokenRefresh(t *testing.T) {
	app := setupApp(t)

	t.Run("refresh rotates the token pair", func(t *testing.T) {
		_, refresh, _ := app.registerUser(t, "dave@example.com", "password123")

		body := fmt.Sprintf(`{"refresh_token":%q}`, refresh)
		rec := app.request("POST", "/api/v1/auth/refresh", body, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		newRefresh := result["refresh_token"].(string)
		if newRefresh == refresh {
			t.Error("expected a rotated refresh token")
		}

		// The old refresh token is no longer accepted.
		rec = app.request("POST", "/api/v1/auth/refresh", body, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for rotated-out token, got %d", rec.Code)
		}

		// The new one is.
		body = fmt.Sprintf(`{"refresh_token":%q}`, newRefresh)
		rec = app.request("POST", "/api/v1/auth/refresh", body, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for rotated token, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		access, _, _ := app.registerUser(t, "erin@example.com", "password123")

		body := fmt.Sprintf(`{"refresh_token":%q}`, access)
		rec := app.request("POST", "/api/v1/auth/refresh", body, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestProfile(t *testing.T) {
	app := setupApp(t)

	t.Run("returns the authenticated user", func(t *testing.T) {
		access, _, userID := app.registerUser(t, "frank@example.com", "password123")

		rec := app.request("GET", "/api/v1/profile", "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["id"] != userID {
			t.Errorf("expected user %s, got %v", userID, user["id"])
		}
		if user["email"] != "frank@example.com" {
			t.Errorf("unexpected email %v", user["email"])
		}
	})

	t.Run("rejects requests without a token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/profile", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
