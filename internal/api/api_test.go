package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()

	database := db.NewTestDB(t)
	router := NewRouter(database, engine.New(database), testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, token
}

func userToken(t *testing.T, database *sql.DB, username string) string {
	t.Helper()

	user, err := store.CreateUser(context.Background(), database, username, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	token, err := auth.GenerateToken(testJWTSecret, user.ID, username, model.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func createTestItem(t *testing.T, server *httptest.Server, token, name string) model.Item {
	t.Helper()

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"name":     name,
		"category": "camera",
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create item request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating item, got %d", resp.StatusCode)
	}

	var item model.Item
	json.NewDecoder(resp.Body).Decode(&item)
	return item
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Sony A7")
	if item.Status != model.ItemStatusAvailable {
		t.Errorf("expected new item to be available, got %q", item.Status)
	}

	// List items.
	req, _ := authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	// Get single item.
	req, _ = authRequest("GET", server.URL+"/api/items/"+item.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown item.
	req, _ = authRequest("GET", server.URL+"/api/items/no-such-item", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReservationAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Sony A7")

	// Create reservation.
	req, _ := authRequest("POST", server.URL+"/api/reservations", token, map[string]any{
		"name":       "Shoot",
		"start_date": "2024-06-01",
		"end_date":   "2024-06-05",
		"item_ids":   []string{item.ID},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating reservation, got %d", resp.StatusCode)
	}
	var res model.Reservation
	json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()
	if res.Name != "Shoot" {
		t.Errorf("expected name 'Shoot', got %q", res.Name)
	}

	// The item is now reserved.
	req, _ = authRequest("GET", server.URL+"/api/items/"+item.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var got model.Item
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got.Status != model.ItemStatusReserved {
		t.Errorf("expected item reserved, got %q", got.Status)
	}

	// Return the item.
	req, _ = authRequest("POST", server.URL+"/api/reservations/"+res.ID+"/return", token, map[string]any{
		"item_ids": []string{item.ID},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 returning item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The reservation is closed and now lives in history.
	req, _ = authRequest("GET", server.URL+"/api/reservations/"+res.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for the closed reservation, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/history/"+res.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from history, got %d", resp.StatusCode)
	}
	var past model.PastReservation
	json.NewDecoder(resp.Body).Decode(&past)
	resp.Body.Close()
	if len(past.Items) != 1 || past.Items[0].Name != "Sony A7" {
		t.Errorf("expected the archived snapshot in history, got %v", past.Items)
	}
}

func TestReservationConflictResponse(t *testing.T) {
	server, _, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Sony A7")

	req, _ := authRequest("POST", server.URL+"/api/reservations", token, map[string]any{
		"name":       "First",
		"start_date": "2024-06-01",
		"end_date":   "2024-06-05",
		"item_ids":   []string{item.ID},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/reservations", token, map[string]any{
		"name":       "Second",
		"start_date": "2024-06-03",
		"end_date":   "2024-06-07",
		"item_ids":   []string{item.ID},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body struct {
		Error     string               `json:"error"`
		Conflicts []store.ItemConflict `json:"conflicts"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if len(body.Conflicts) != 1 || body.Conflicts[0].ItemID != item.ID {
		t.Errorf("expected the conflict body to name the item, got %+v", body)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	item := createTestItem(t, server, adminToken, "Sony A7")
	token := userToken(t, database, "user1")

	// Regular user should not be able to create items.
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"name": "Test",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user creating item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Regular user should not access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Bulk return is admin only.
	req, _ = authRequest("POST", server.URL+"/api/reservations/return", token, map[string]any{
		"reservation_ids": []string{"whatever"},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user bulk returning, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// But a regular user can reserve.
	req, _ = authRequest("POST", server.URL+"/api/reservations", token, map[string]any{
		"start_date": "2024-06-01",
		"end_date":   "2024-06-05",
		"item_ids":   []string{item.ID},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201 for user reserving, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReservationOwnership(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	item := createTestItem(t, server, adminToken, "Sony A7")
	aliceToken := userToken(t, database, "alice")
	bobToken := userToken(t, database, "bob")

	// Alice reserves the item.
	req, _ := authRequest("POST", server.URL+"/api/reservations", aliceToken, map[string]any{
		"start_date": "2024-06-01",
		"end_date":   "2024-06-05",
		"item_ids":   []string{item.ID},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var res model.Reservation
	json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()

	// Bob cannot return Alice's items.
	req, _ = authRequest("POST", server.URL+"/api/reservations/"+res.ID+"/return", bobToken, map[string]any{
		"item_ids": []string{item.ID},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner return, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// An admin can.
	req, _ = authRequest("POST", server.URL+"/api/reservations/"+res.ID+"/return", adminToken, map[string]any{
		"item_ids": []string{item.ID},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for admin return, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMaintenanceAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Sony A7")

	req, _ := authRequest("POST", server.URL+"/api/reservations", token, map[string]any{
		"start_date": "2024-06-01",
		"end_date":   "2024-06-05",
		"item_ids":   []string{item.ID},
	})
	resp, _ := http.DefaultClient.Do(req)
	var res model.Reservation
	json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()

	// Send the item to maintenance.
	req, _ = authRequest("POST", server.URL+"/api/reservations/"+res.ID+"/maintenance", token, map[string]any{
		"item_ids": []string{item.ID},
		"info":     "broken cable",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// It shows up in the maintenance list.
	req, _ = authRequest("GET", server.URL+"/api/maintenance", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var records []model.MaintenanceRecord
	json.NewDecoder(resp.Body).Decode(&records)
	resp.Body.Close()
	if len(records) != 1 || records[0].Info != "broken cable" {
		t.Fatalf("expected one maintenance record, got %v", records)
	}

	// Restore it.
	req, _ = authRequest("POST", server.URL+"/api/maintenance/"+item.ID+"/restore", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 restoring, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Restoring again is a 404.
	req, _ = authRequest("POST", server.URL+"/api/maintenance/"+item.ID+"/restore", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on second restore, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from health, got %d", resp.StatusCode)
	}
}
