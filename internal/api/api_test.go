package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, "test-secret")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// registerUser registers an account through the API and returns its token.
func registerUser(t *testing.T, server *httptest.Server, email, name string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":        email,
		"display_name": name,
		"password":     "a-valid-password",
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}

	var session map[string]string
	json.NewDecoder(resp.Body).Decode(&session)
	if session["token"] == "" {
		t.Fatal("empty token from register")
	}
	return session["token"]
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func postItem(t *testing.T, server *httptest.Server, token string, fields map[string]string) model.Item {
	t.Helper()

	body := map[string]string{
		"post_type": model.PostTypeLost,
		"title":     "Black wallet",
		"category":  "accessories",
		"location":  "Central bus station",
		"date":      "2024-01-05",
	}
	for k, v := range fields {
		body[k] = v
	}

	req, _ := authRequest("POST", server.URL+"/api/items", token, body)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create item request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item failed: %d", resp.StatusCode)
	}

	var item model.Item
	json.NewDecoder(resp.Body).Decode(&item)
	return item
}

func TestRegisterAndLogin(t *testing.T) {
	server := setupTestServer(t)

	registerUser(t, server, "ana@example.com", "Ana")

	// Duplicate registration.
	body, _ := json.Marshal(map[string]string{
		"email":        "ana@example.com",
		"display_name": "Ana Again",
		"password":     "a-valid-password",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Wrong password.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "wrong-password"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Correct password.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "a-valid-password"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for login, got %d", resp.StatusCode)
	}
	var session map[string]string
	json.NewDecoder(resp.Body).Decode(&session)
	resp.Body.Close()
	if session["display_name"] != "Ana" {
		t.Errorf("expected display name 'Ana' in session, got %q", session["display_name"])
	}
}

func TestRecoveryFlow(t *testing.T) {
	server := setupTestServer(t)
	reporter := registerUser(t, server, "ana@example.com", "Ana")
	claimant := registerUser(t, server, "bor@example.com", "Bor")

	item := postItem(t, server, reporter, nil)
	if item.Status != model.ItemStatusLost {
		t.Fatalf("expected fresh item status 'lost', got %q", item.Status)
	}

	// Submit a recovery claim as a different user.
	req, _ := authRequest("POST", server.URL+"/api/claims", claimant, map[string]any{
		"item_id":            item.ID,
		"recovered_location": "Library",
		"recovered_date":     "2024-01-10",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for claim, got %d", resp.StatusCode)
	}
	var claim model.Claim
	json.NewDecoder(resp.Body).Decode(&claim)
	resp.Body.Close()
	if claim.Status != model.ClaimStatusRecovered {
		t.Errorf("expected claim status 'recovered', got %q", claim.Status)
	}
	if claim.Title != item.Title {
		t.Errorf("expected claim title %q, got %q", item.Title, claim.Title)
	}

	// Item now reads recovered, with the claim attached.
	resp, _ = http.Get(server.URL + "/api/items/" + itoa(item.ID))
	var detail struct {
		Item  model.Item   `json:"item"`
		Claim *model.Claim `json:"claim"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Item.Status != model.ItemStatusRecovered {
		t.Errorf("expected item status 'recovered', got %q", detail.Item.Status)
	}
	if detail.Claim == nil {
		t.Error("expected claim in item detail")
	}

	// A second claim on the same item is rejected.
	req, _ = authRequest("POST", server.URL+"/api/claims", reporter, map[string]any{
		"item_id":            item.ID,
		"recovered_location": "Park",
		"recovered_date":     "2024-01-11",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for second claim, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The claimant sees the claim under /api/my/claims.
	req, _ = authRequest("GET", server.URL+"/api/my/claims", claimant, nil)
	resp, _ = http.DefaultClient.Do(req)
	var claims []model.Claim
	json.NewDecoder(resp.Body).Decode(&claims)
	resp.Body.Close()
	if len(claims) != 1 {
		t.Errorf("expected 1 claim for claimant, got %d", len(claims))
	}
}

func TestClaimValidation(t *testing.T) {
	server := setupTestServer(t)
	reporter := registerUser(t, server, "ana@example.com", "Ana")

	item := postItem(t, server, reporter, nil)

	// Empty location must be rejected before anything changes.
	req, _ := authRequest("POST", server.URL+"/api/claims", reporter, map[string]any{
		"item_id":            item.ID,
		"recovered_location": "",
		"recovered_date":     "2024-01-10",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty location, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Malformed date likewise.
	req, _ = authRequest("POST", server.URL+"/api/claims", reporter, map[string]any{
		"item_id":            item.ID,
		"recovered_location": "Library",
		"recovered_date":     "10.1.2024",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Item status unchanged.
	resp, _ = http.Get(server.URL + "/api/items/" + itoa(item.ID))
	var detail struct {
		Item model.Item `json:"item"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Item.Status != model.ItemStatusLost {
		t.Errorf("expected item status unchanged, got %q", detail.Item.Status)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	server := setupTestServer(t)
	owner := registerUser(t, server, "ana@example.com", "Ana")
	other := registerUser(t, server, "bor@example.com", "Bor")

	item := postItem(t, server, owner, nil)
	if item.ContactEmail != "ana@example.com" {
		t.Fatalf("expected contact email from session, got %q", item.ContactEmail)
	}

	update := map[string]string{
		"post_type": item.PostType,
		"title":     "Edited title",
		"category":  item.Category,
		"date":      item.Date,
	}

	// A non-owner cannot edit or delete.
	req, _ := authRequest("PUT", server.URL+"/api/items/"+itoa(item.ID), other, update)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner update, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("DELETE", server.URL+"/api/items/"+itoa(item.ID), other, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The owner can edit; the contact email stays the owner's even though
	// the request never carries it.
	req, _ = authRequest("PUT", server.URL+"/api/items/"+itoa(item.ID), owner, update)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner update, got %d", resp.StatusCode)
	}
	var updated model.Item
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated.Title != "Edited title" {
		t.Errorf("expected updated title, got %q", updated.Title)
	}
	if updated.ContactEmail != "ana@example.com" {
		t.Errorf("expected contact email pinned to owner, got %q", updated.ContactEmail)
	}

	// The owner deletes; the item disappears from the listing.
	req, _ = authRequest("DELETE", server.URL+"/api/items/"+itoa(item.ID), owner, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(server.URL + "/api/items")
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 0 {
		t.Errorf("expected empty listing after delete, got %d items", len(items))
	}
}

func TestBrowseAndSearch(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "ana@example.com", "Ana")

	postItem(t, server, token, nil)
	postItem(t, server, token, map[string]string{
		"post_type": model.PostTypeFound,
		"title":     "Silver keychain",
		"category":  "keys",
	})

	// Browsing needs no session.
	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for public listing, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}

	resp, _ = http.Get(server.URL + "/api/items?type=found&category=keys")
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].Title != "Silver keychain" {
		t.Errorf("unexpected filtered listing: %+v", items)
	}

	resp, _ = http.Get(server.URL + "/api/items?q=wallet")
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Errorf("expected 1 search hit, got %d", len(items))
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", "", map[string]string{"title": "x"})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated create, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "ana@example.com", "Ana")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The same token no longer works.
	req, _ = authRequest("GET", server.URL+"/api/auth/session", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemNotFound(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items/999")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMyItems(t *testing.T) {
	server := setupTestServer(t)
	ana := registerUser(t, server, "ana@example.com", "Ana")
	bor := registerUser(t, server, "bor@example.com", "Bor")

	postItem(t, server, ana, nil)
	postItem(t, server, bor, map[string]string{"title": "Blue umbrella", "category": "other"})

	req, _ := authRequest("GET", server.URL+"/api/my/items", bor, nil)
	resp, _ := http.DefaultClient.Do(req)
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].Title != "Blue umbrella" {
		t.Errorf("unexpected my-items listing: %+v", items)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
