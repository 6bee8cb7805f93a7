package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gauge-analytics/influence/internal/cache"
	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/view"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	state := view.NewState()
	state.SetBrands([]domain.Brand{
		{ID: "A", Name: "Acme", Active: true},
	})
	state.SetUsers([]domain.User{
		{ID: 1, Gender: domain.GenderMale, AgeGroup: domain.AgeGroupAdults, Name: domain.Name{First: "Ann"}, FullName: "Ann"},
		{ID: 2, Gender: domain.GenderFemale, AgeGroup: domain.AgeGroupTens, Name: domain.Name{First: "Bo"}, FullName: "Bo"},
	})
	state.SetInteractions(
		[]domain.Interaction{
			{UserID: 1, BrandID: "A", TypeID: "SHARE"},
			{UserID: 1, BrandID: "A", TypeID: "SHARE"},
			{UserID: 2, BrandID: "A", TypeID: "COMMENT"},
		},
		[]domain.InteractionType{
			{ID: "COMMENT", Name: "Comment", Active: true},
			{ID: "SHARE", Name: "Share", Active: true},
		},
	)

	c := cache.NewLRUCache(100)
	t.Cleanup(func() { c.Close() })

	return NewServer(domain.ServerConfig{}, state, c, nil, nil, "test")
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body failed: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response failed: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "healthy" || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestReadyEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/ready", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["status"] != "ready" {
		t.Errorf("unexpected ready body: %v", body)
	}
}

func TestGetView(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/view", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.TotalInteractions != 3 || snap.TotalUsers != 2 {
		t.Errorf("unexpected totals: %+v", snap)
	}
	if len(snap.InfluentialUsers) != 2 || snap.InfluentialUsers[0].ID != 1 {
		t.Errorf("unexpected ranking: %+v", snap.InfluentialUsers)
	}
	if snap.InfluentialUsers[0].Influence != "66.67%" {
		t.Errorf("expected \"66.67%%\", got %q", snap.InfluentialUsers[0].Influence)
	}
}

func TestToggleFilter(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/filters/ageGroup/tens/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.TotalInteractions != 2 || snap.TotalUsers != 1 {
		t.Errorf("expected the teen user filtered out, got %+v", snap)
	}

	t.Run("UnknownCategory", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/filters/height/tall/toggle", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestToggleBrand(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/brands/A/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.TotalInteractions != 0 {
		t.Errorf("expected no interactions with the only brand disabled, got %d", snap.TotalInteractions)
	}

	t.Run("UnknownBrand", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/brands/GHOST/toggle", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestToggleType(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/types/COMMENT/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.TotalInteractions != 2 || snap.TotalUsers != 1 {
		t.Errorf("expected only the share interactions, got %+v", snap)
	}

	t.Run("UnknownType", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/types/WAVE/toggle", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestUpdateSort(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/sort", SortRequest{OrderBy: "fullName", Order: "asc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.Sort.OrderBy != "fullName" || snap.Sort.Order != "asc" {
		t.Errorf("unexpected sort: %+v", snap.Sort)
	}
	if snap.InfluentialUsers[0].FullName != "Ann" {
		t.Errorf("expected Ann first by name, got %q", snap.InfluentialUsers[0].FullName)
	}

	t.Run("UnknownKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, "/sort", SortRequest{OrderBy: "email", Order: "asc"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/sort", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateSegment(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/segment", SegmentRequest{Expression: `age_group == "adults"`})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap view.Model
	decodeBody(t, rec, &snap)
	if snap.TotalUsers != 1 {
		t.Errorf("expected only the adult user, got %+v", snap)
	}

	t.Run("InvalidExpression", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, "/segment", SegmentRequest{Expression: "age >>>"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("ClearSegment", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, "/segment", SegmentRequest{Expression: ""})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var snap view.Model
		decodeBody(t, rec, &snap)
		if snap.TotalUsers != 2 {
			t.Errorf("expected both users back, got %+v", snap)
		}
	})
}

func TestExportCSV(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/export/csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("unexpected content type: %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="influential-users.csv"` {
		t.Errorf("unexpected disposition: %q", got)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "#;Gender;") {
		t.Errorf("unexpected header line: %q", lines[0])
	}

	t.Run("CachedSecondRead", func(t *testing.T) {
		again := doRequest(t, srv, http.MethodGet, "/export/csv", nil)
		if again.Body.String() != rec.Body.String() {
			t.Error("expected identical bytes from the cached artifact")
		}
	})

	t.Run("InvalidatedByMutation", func(t *testing.T) {
		toggle := doRequest(t, srv, http.MethodPost, "/filters/ageGroup/tens/toggle", nil)
		if toggle.Code != http.StatusOK {
			t.Fatalf("toggle failed: %d", toggle.Code)
		}
		after := doRequest(t, srv, http.MethodGet, "/export/csv", nil)
		lines := strings.Split(strings.TrimSpace(after.Body.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected header + 1 row after filtering, got %d lines", len(lines))
		}
	})
}

func TestExportJSON(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/export/json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="influential-users.json"` {
		t.Errorf("unexpected disposition: %q", got)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding export failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestExportXLSX(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/export/xlsx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="influential-users.xlsx"` {
		t.Errorf("unexpected disposition: %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip container")
	}
}

func TestListEndpoints(t *testing.T) {
	srv := testServer(t)

	cases := []struct {
		path      string
		countKey  string
		wantCount float64
	}{
		{"/brands", "count", 1},
		{"/types", "count", 2},
		{"/users/filtered", "count", 2},
		{"/interactions/filtered", "count", 3},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, tc.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body map[string]interface{}
			decodeBody(t, rec, &body)
			if got := body[tc.countKey]; got != tc.wantCount {
				t.Errorf("expected %s %v, got %v", tc.countKey, tc.wantCount, got)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/view", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS headers on preflight")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/nope/%d", 1), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
