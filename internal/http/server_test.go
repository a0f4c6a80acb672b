package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mem "fintrack/internal/ledger/memory"
)

// newMemoryServer runs the single-session variant over the in-memory
// store.
func newMemoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(":0", mem.NewStore(), nil, Options{})
	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return ts
}

// newAccountServer runs the persisted-variant surface (auth mounted)
// against the in-memory adapters.
func newAccountServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	s := NewServer(":0", mem.NewStore(), mem.NewCredentials(), Options{RateLimitPerMinute: 1000})
	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, url, raw, err)
		}
	}
	return resp, decoded
}

func TestHealthEndpoints(t *testing.T) {
	ts := newMemoryServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestMemoryVariantNeedsNoLogin(t *testing.T) {
	ts := newMemoryServer(t)
	resp, body := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/home", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home: status %d", resp.StatusCode)
	}
	if body["view"] != "Home" {
		t.Fatalf("home view = %v", body["view"])
	}
	// Auth endpoints are not mounted in the single-session variant.
	resp, _ = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/login", `{"username":"a","password":"b"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("login should not exist in memory variant, got %d", resp.StatusCode)
	}
}

func TestAddListDeleteFlow(t *testing.T) {
	ts := newMemoryServer(t)
	client := http.DefaultClient

	resp, created := doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-01-05","category":"Groceries","amount":"50.00","kind":"Expense"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: status %d", resp.StatusCode)
	}
	if created["amount"] != "50.00" || created["category"] != "Groceries" {
		t.Fatalf("unexpected created payload: %v", created)
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-01-06","category":"Salary","amount":"2000.00","kind":"Income"}`)

	resp, listed := doJSON(t, client, http.MethodGet, ts.URL+"/api/transactions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	txs := listed["transactions"].([]any)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	first := txs[0].(map[string]any)
	if first["date"] != "2024-01-05" || first["kind"] != "Expense" {
		t.Fatalf("unexpected first row: %v", first)
	}

	id := first["id"].(float64)
	resp, _ = doJSON(t, client, http.MethodDelete, ts.URL+"/api/transactions/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete id %v: status %d", id, resp.StatusCode)
	}

	resp, listed = doJSON(t, client, http.MethodGet, ts.URL+"/api/transactions", "")
	if got := len(listed["transactions"].([]any)); got != 1 {
		t.Fatalf("expected 1 transaction after delete, got %d", got)
	}

	// Deleting again reports not found and changes nothing.
	resp, _ = doJSON(t, client, http.MethodDelete, ts.URL+"/api/transactions/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("re-delete: status %d", resp.StatusCode)
	}
}

func TestAddValidation(t *testing.T) {
	ts := newMemoryServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"date":"2024-01-05","category":"X","amount":"0","kind":"Expense"}`},
		{"negative amount", `{"date":"2024-01-05","category":"X","amount":"-5","kind":"Expense"}`},
		{"empty category", `{"date":"2024-01-05","category":"","amount":"5","kind":"Expense"}`},
		{"bad kind", `{"date":"2024-01-05","category":"X","amount":"5","kind":"Transfer"}`},
		{"bad date", `{"date":"Jan 5","category":"X","amount":"5","kind":"Expense"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/transactions", tc.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status %d, want 422", resp.StatusCode)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	ts := newMemoryServer(t)
	client := http.DefaultClient

	// Empty store: all zeroes, empty breakdown.
	resp, sum := doJSON(t, client, http.MethodGet, ts.URL+"/api/summary", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	if sum["total_income"] != "0.00" || sum["net"] != "0.00" {
		t.Fatalf("empty summary: %v", sum)
	}
	if len(sum["by_category"].([]any)) != 0 {
		t.Fatalf("empty summary breakdown: %v", sum["by_category"])
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-01-05","category":"Groceries","amount":"50.00","kind":"Expense"}`)
	doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-01-06","category":"Salary","amount":"2000.00","kind":"Income"}`)

	// The add must have invalidated the cached empty summary.
	_, sum = doJSON(t, client, http.MethodGet, ts.URL+"/api/summary", "")
	if sum["total_income"] != "2000.00" || sum["total_expense"] != "50.00" || sum["net"] != "1950.00" {
		t.Fatalf("unexpected summary: %v", sum)
	}
	byCat := sum["by_category"].([]any)
	if len(byCat) != 1 {
		t.Fatalf("breakdown: %v", byCat)
	}
	entry := byCat[0].(map[string]any)
	if entry["category"] != "Groceries" || entry["amount"] != "50.00" {
		t.Fatalf("breakdown entry: %v", entry)
	}
}

func TestExportCSV(t *testing.T) {
	ts := newMemoryServer(t)
	client := http.DefaultClient

	doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-01-05","category":"Groceries","amount":"50.00","kind":"Expense"}`)

	resp, err := http.Get(ts.URL + "/api/export?format=csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "transactions.csv") {
		t.Fatalf("content disposition: %q", got)
	}

	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("re-parse exported csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "Groceries" || records[1][2] != "50.00" {
		t.Fatalf("unexpected csv: %v", records)
	}
}

func TestExportPDFAndBadFormat(t *testing.T) {
	ts := newMemoryServer(t)

	resp, err := http.Get(ts.URL + "/api/export?format=pdf")
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf export: status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(string(body), "%PDF") {
		t.Fatal("pdf export did not produce a PDF")
	}

	resp2, _ := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/export?format=xlsx", "")
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad format: status %d", resp2.StatusCode)
	}
}

func TestAccountLifecycle(t *testing.T) {
	ts, client := newAccountServer(t)

	// Anonymous clients cannot reach the views.
	resp, _ := doJSON(t, client, http.MethodGet, ts.URL+"/api/transactions", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/register", `{"username":"alice","password":"pw"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}

	// Registration does not log in.
	resp, _ = doJSON(t, client, http.MethodGet, ts.URL+"/api/transactions", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-register list should still be anonymous, got %d", resp.StatusCode)
	}

	// Duplicate username is rejected.
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/register", `{"username":"alice","password":"other"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", resp.StatusCode)
	}

	// Wrong password and unknown user get the same answer.
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/login", `{"username":"alice","password":"nope"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/login", `{"username":"ghost","password":"pw"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user login: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/login", `{"username":"alice","password":"pw"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-02-01","category":"Rent","amount":"900","kind":"Expense"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add while logged in: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/logout", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, client, http.MethodGet, ts.URL+"/api/transactions", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout list: status %d", resp.StatusCode)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	ts, alice := newAccountServer(t)

	doJSON(t, alice, http.MethodPost, ts.URL+"/api/register", `{"username":"alice","password":"pw"}`)
	doJSON(t, alice, http.MethodPost, ts.URL+"/api/login", `{"username":"alice","password":"pw"}`)
	doJSON(t, alice, http.MethodPost, ts.URL+"/api/transactions",
		`{"date":"2024-02-01","category":"Rent","amount":"900","kind":"Expense"}`)

	jar, _ := cookiejar.New(nil)
	bob := &http.Client{Jar: jar, Timeout: 5 * time.Second}
	doJSON(t, bob, http.MethodPost, ts.URL+"/api/register", `{"username":"bob","password":"pw"}`)
	doJSON(t, bob, http.MethodPost, ts.URL+"/api/login", `{"username":"bob","password":"pw"}`)

	_, listed := doJSON(t, bob, http.MethodGet, ts.URL+"/api/transactions", "")
	if got := len(listed["transactions"].([]any)); got != 0 {
		t.Fatalf("bob sees alice's transactions: %v", listed)
	}

	// Bob cannot delete alice's record even knowing its ID.
	resp, _ := doJSON(t, bob, http.MethodDelete, ts.URL+"/api/transactions/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-owner delete: status %d", resp.StatusCode)
	}
	_, listed = doJSON(t, alice, http.MethodGet, ts.URL+"/api/transactions", "")
	if got := len(listed["transactions"].([]any)); got != 1 {
		t.Fatalf("alice's record lost: %v", listed)
	}
}
