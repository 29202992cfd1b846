package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/middleware"
	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/internal/service"
	"go-site-inventory/internal/storage"
	"go-site-inventory/pkg/database"
	"go-site-inventory/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type testServer struct {
	app   *fiber.App
	site  *model.Site
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := database.OpenTest(t)
	signer := jwt.NewSigner("handler-test-secret", "go-site-inventory", time.Hour)

	store, err := storage.NewLocal(t.TempDir(), "http://example.test/files", 1<<20, signer)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	sites := repository.NewSiteRepo(db)
	users := repository.NewUserRepo(db)
	repos := []repository.LedgerRepository{
		repository.NewSteelRepo(db),
		repository.NewCementRepo(db),
		repository.NewDieselRepo(db),
	}

	authService := service.NewAuthService(users, signer, time.Hour, log)
	inventory := service.NewInventoryService(db, sites, repos, store, nil, log)
	reports := service.NewReportService(db, sites, inventory, repos, decimal.Zero, log)

	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Auth:      NewAuthHandler(authService),
		Sites:     NewSiteHandler(service.NewSiteService(sites)),
		Inventory: NewInventoryHandler(inventory),
		Reports:   NewReportHandler(reports, inventory),
		Dashboard: NewDashboardHandler(service.NewDashboardService(sites, repos)),
		Files:     NewFileHandler(store, time.Minute),
	}, middleware.RequireAuth(authService))

	site := &model.Site{Code: "BLR01", Name: "Bengaluru Tower"}
	if err := sites.Create(context.Background(), site); err != nil {
		t.Fatal(err)
	}
	if _, err := authService.EnsureAdmin("admin@site.test", "changeme123"); err != nil {
		t.Fatal(err)
	}
	login, err := authService.Login("admin@site.test", "changeme123")
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{app: app, site: site, token: login.Token}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (s *testServer) json(t *testing.T, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return s.do(t, method, path, strings.NewReader(body), fiber.MIMEApplicationJSON)
}

func (s *testServer) sitePath(rest string) string {
	return "/api/v1/sites/" + s.site.ID.String() + rest
}

func TestRecordIncomingAndOutgoing(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.json(t, "POST", s.sitePath("/steel/incoming"),
		`{"diameter": 12, "amount": 5, "unit": "tonnes", "supplier": "Tata Steel", "date": "2024-06-01"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("incoming status = %d, body = %v", resp.StatusCode, body)
	}
	tx := body["transaction"].(map[string]interface{})
	if tx["quantity"] != "469" || tx["counterparty"] != "Tata Steel" {
		t.Errorf("transaction = %v, want 469 pieces from Tata Steel", tx)
	}

	resp, body = s.json(t, "POST", s.sitePath("/steel/outgoing"), `{"diameter": 12, "amount": "600", "recipient": "Block A crew"}`)
	if resp.StatusCode != 409 {
		t.Fatalf("oversized outgoing status = %d, want 409", resp.StatusCode)
	}
	if body["available"] != "469" {
		t.Errorf("available = %v, want 469", body["available"])
	}

	resp, body = s.json(t, "POST", s.sitePath("/steel/outgoing"), `{"diameter": 12, "amount": "100", "recipient": "Block A crew"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("outgoing status = %d, body = %v", resp.StatusCode, body)
	}
	stock := body["stock"].(map[string]interface{})
	if stock["quantity"] != "369" || stock["weight"] != "3.932064" {
		t.Errorf("stock = %v, want 369 / 3.932064", stock)
	}

	resp, body = s.do(t, "GET", s.sitePath("/steel/transactions?period=all&type=outgoing"), nil, "")
	if resp.StatusCode != 200 {
		t.Fatalf("transactions status = %d", resp.StatusCode)
	}
	if data := body["data"].([]interface{}); len(data) != 1 {
		t.Errorf("len(outgoing history) = %d, want 1", len(data))
	}
}

func TestRecord_ErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing counterparty", s.sitePath("/cement/incoming"), `{"cement_type": "PPC", "amount": 10}`, 400},
		{"unknown material", s.sitePath("/sand/incoming"), `{"amount": 10, "supplier": "x"}`, 400},
		{"bad site id", "/api/v1/sites/not-a-uuid/steel/incoming", `{}`, 400},
		{"unknown site", "/api/v1/sites/00000000-0000-0000-0000-000000000001/diesel/incoming", `{"amount": 10, "supplier": "IOCL"}`, 404},
		{"bad date", s.sitePath("/diesel/incoming"), `{"amount": 10, "supplier": "IOCL", "date": "last tuesday"}`, 400},
		{"broken json", s.sitePath("/diesel/incoming"), `{"amount":`, 400},
		{"less than one bar", s.sitePath("/steel/incoming"), `{"diameter": 12, "amount": 5, "unit": "kg", "supplier": "JSW"}`, 400},
		{"length finer than mm", s.sitePath("/steel/incoming"), `{"diameter": 12, "length": 12.0005, "amount": 1, "supplier": "JSW"}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.json(t, "POST", tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %v)", resp.StatusCode, tt.want, body)
			}
			if body["error"] == nil {
				t.Error("body has no error field")
			}
		})
	}
}

func TestMultipartUploadAndSignedDownload(t *testing.T) {
	s := newTestServer(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("cement_type", "OPC 53 Grade")
	_ = w.WriteField("amount", "40")
	_ = w.WriteField("supplier", "UltraTech")
	part, _ := w.CreateFormFile("attachment", "bill.png")
	_, _ = part.Write(png)
	_ = w.Close()

	resp, body := s.do(t, "POST", s.sitePath("/cement/incoming"), &buf, w.FormDataContentType())
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	tx := body["transaction"].(map[string]interface{})
	if tx["weight"] != "2" {
		t.Errorf("weight = %v, want 2", tx["weight"])
	}
	attachments := tx["attachments"].([]interface{})
	if len(attachments) != 1 {
		t.Fatalf("attachments = %v, want 1", attachments)
	}
	path := attachments[0].(map[string]interface{})["path"].(string)
	if !strings.HasPrefix(path, "bills/BLR01_") || !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want bills/BLR01_*.png", path)
	}

	resp, body = s.do(t, "GET", "/api/v1/files/url?path="+path, nil, "")
	if resp.StatusCode != 200 {
		t.Fatalf("signed url status = %d, body = %v", resp.StatusCode, body)
	}
	url := body["url"].(string)
	token := strings.TrimPrefix(url, "http://example.test/files/")

	resp, err := s.app.Test(httptest.NewRequest("GET", "/files/"+token, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("download = %d %s, want 200 image/png", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, png) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(png))
	}

	resp, _ = s.app.Test(httptest.NewRequest("GET", "/files/"+token+"x", nil), -1)
	if resp.StatusCode != 403 {
		t.Errorf("tampered download status = %d, want 403", resp.StatusCode)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)
	_, body := s.json(t, "POST", s.sitePath("/diesel/incoming"), `{"amount": 250, "supplier": "IOCL"}`)
	id := body["transaction"].(map[string]interface{})["id"].(string)

	resp, body := s.do(t, "DELETE", s.sitePath("/diesel/transactions/"+id), nil, "")
	if resp.StatusCode != 200 {
		t.Fatalf("delete status = %d, body = %v", resp.StatusCode, body)
	}
	if q := body["stock"].(map[string]interface{})["quantity"]; q != "0" {
		t.Errorf("quantity after delete = %v, want 0", q)
	}

	resp, _ = s.do(t, "DELETE", s.sitePath("/diesel/transactions/"+id), nil, "")
	if resp.StatusCode != 404 {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestReportsAndExport(t *testing.T) {
	s := newTestServer(t)
	s.json(t, "POST", s.sitePath("/steel/incoming"), `{"diameter": 16, "amount": 1, "supplier": "JSW"}`)

	resp, body := s.do(t, "GET", s.sitePath("/steel/summary?period=last30days"), nil, "")
	if resp.StatusCode != 200 {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	if vs := body["variants"].([]interface{}); len(vs) != 1 {
		t.Errorf("variants = %v, want 1", vs)
	}

	resp, body = s.do(t, "GET", s.sitePath("/steel/tally"), nil, "")
	if resp.StatusCode != 200 || body["drifted"] != float64(0) {
		t.Errorf("tally = %d %v, want 200 with no drift", resp.StatusCode, body)
	}

	formats := []struct {
		query string
		ctype string
	}{
		{"format=csv", "text/csv"},
		{"format=xlsx&report=summary", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	for _, f := range formats {
		t.Run(f.query, func(t *testing.T) {
			resp, _ := s.do(t, "GET", s.sitePath("/steel/export?"+f.query), nil, "")
			if resp.StatusCode != 200 {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if !strings.HasPrefix(resp.Header.Get("Content-Type"), f.ctype) {
				t.Errorf("Content-Type = %q, want %q", resp.Header.Get("Content-Type"), f.ctype)
			}
			if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
				t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
			}
		})
	}

	resp, _ = s.do(t, "GET", s.sitePath("/steel/export?format=pdf"), nil, "")
	if resp.StatusCode != 400 {
		t.Errorf("export pdf status = %d, want 400", resp.StatusCode)
	}
}

func TestSitesAndAuth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.json(t, "POST", "/api/v1/sites", `{"code": "hyd01", "name": "Hyderabad Metro"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("create site status = %d", resp.StatusCode)
	}
	resp, _ = s.json(t, "POST", "/api/v1/sites", `{"code": "HYD01", "name": "Again"}`)
	if resp.StatusCode != 409 {
		t.Errorf("duplicate site status = %d, want 409", resp.StatusCode)
	}

	resp, _ = s.do(t, "GET", "/api/v1/dashboard?limit=5", nil, "")
	if resp.StatusCode != 200 {
		t.Errorf("dashboard status = %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/v1/sites", nil)
	resp, _ = s.app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	resp, _ = s.json(t, "POST", "/api/v1/auth/login", `{"email": "admin@site.test", "password": "nope"}`)
	if resp.StatusCode != 401 {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp, _ = s.json(t, "POST", "/api/v1/auth/change-password", `{"old_password": "changeme123", "new_password": "short"}`)
	if resp.StatusCode != 400 {
		t.Errorf("weak password status = %d, want 400", resp.StatusCode)
	}
}

func TestBoundedInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 10},
		{"abc", 10},
		{"-5", 10},
		{"0", 10},
		{"25", 25},
		{"100", 100},
		{"100000", 100},
	}
	for _, tt := range tests {
		if got := boundedInt(tt.raw, 10, maxOverviewLimit); got != tt.want {
			t.Errorf("boundedInt(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestDashboardLimitIsCapped(t *testing.T) {
	s := newTestServer(t)
	s.json(t, "POST", s.sitePath("/diesel/incoming"), `{"amount": 250, "supplier": "IOCL"}`)

	resp, body := s.json(t, "GET", "/api/v1/dashboard?limit=99999999", "")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200 (body %v)", resp.StatusCode, body)
	}
	resp, _ = s.json(t, "GET", s.sitePath("/diesel/movement?days=99999999"), "")
	if resp.StatusCode != 200 {
		t.Errorf("movement status = %d, want 200", resp.StatusCode)
	}
}

func TestGetMaterials(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.json(t, "GET", "/api/v1/materials", "")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	steel, _ := body["steel"].([]interface{})
	if len(steel) != len(ledger.SteelDiameters) {
		t.Fatalf("len(steel) = %d, want %d", len(steel), len(ledger.SteelDiameters))
	}
	twelve := steel[3].(map[string]interface{})
	if twelve["label"] != "12mm" || twelve["piece_weight_kg"] != "10.656" {
		t.Errorf("12mm entry = %v, want label 12mm and piece weight 10.656", twelve)
	}
	cement, _ := body["cement"].([]interface{})
	if len(cement) != len(ledger.CementGrades) {
		t.Errorf("len(cement) = %d, want %d", len(cement), len(ledger.CementGrades))
	}
}
