package gradebook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	factory, err := NewFactory(Config{URLBase: srv.URL + "/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create factory: %v", err)
	}
	return factory("test gradebook")
}

func TestListSections(t *testing.T) {
	var gotURL *url.URL
	var gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": ["sectionA", "sectionB"]}`))
	})

	data, err := client.ListSections(context.Background())
	if err != nil {
		t.Fatalf("ListSections failed: %v", err)
	}

	if len(data) != 2 || data[0] != "sectionA" {
		t.Errorf("Expected payload returned verbatim, got %v", data)
	}
	if gotURL.Path != "/service/gradebook/sections/test%20gradebook" {
		t.Errorf("Unexpected path %q", gotURL.Path)
	}
	if gotURL.Query().Get("simple") != "true" {
		t.Errorf("Expected simple=true query, got %q", gotURL.RawQuery)
	}
	if gotRequestID == "" {
		t.Error("Expected X-Request-Id header on remote call")
	}
}

func TestListStudents_SectionFilter(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	if _, err := client.ListStudents(context.Background(), "recitation-1"); err != nil {
		t.Fatalf("ListStudents failed: %v", err)
	}
	if gotQuery.Get("section") != "recitation-1" {
		t.Errorf("Expected section query param, got %q", gotQuery.Encode())
	}

	if _, err := client.ListStudents(context.Background(), ""); err != nil {
		t.Fatalf("ListStudents failed: %v", err)
	}
	if gotQuery.Has("section") {
		t.Error("Expected no section param for all-sections query")
	}
}

func TestRemoteRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "gradebook not found"}`))
	})

	_, err := client.ListAssignments(context.Background())
	if err == nil {
		t.Fatal("Expected error from 400 response")
	}
	if !IsRejected(err) {
		t.Errorf("Expected rejected error, got %v", err)
	}
	if err.Error() != "gradebook not found" {
		t.Errorf("Expected remote message surfaced, got %q", err.Error())
	}
}

func TestRemoteUnavailable_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)

	factory, err := NewFactory(Config{URLBase: srv.URL + "/", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to create factory: %v", err)
	}
	client := factory("gb")

	_, err = client.ListSections(context.Background())
	if err == nil {
		t.Fatal("Expected error from timed-out call")
	}
	if !IsUnavailable(err) {
		t.Errorf("Expected unavailable error for timeout, got %v", err)
	}
}

func TestImportSpreadsheet(t *testing.T) {
	var gotQuery url.Values
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"data": {"numFailures": 2, "results": ["row4", "row9"]}}`))
	})

	result, err := client.ImportSpreadsheet(context.Background(), []byte("user,grade\n"), ImportOptions{
		ApproveGrades:      true,
		UseMaxPointsColumn: true,
		MaxPointsColumn:    "max_pts",
		NormalizeColumn:    "normalize",
	})
	if err != nil {
		t.Fatalf("ImportSpreadsheet failed: %v", err)
	}

	if result.NumFailures != 2 {
		t.Errorf("Expected 2 failures, got %d", result.NumFailures)
	}
	if len(result.Results) != 2 {
		t.Errorf("Expected 2 failure rows, got %v", result.Results)
	}
	if string(gotBody) != "user,grade\n" {
		t.Errorf("Expected CSV body passed through, got %q", gotBody)
	}
	if gotQuery.Get("approve_grades") != "true" {
		t.Errorf("Expected approve_grades=true, got %q", gotQuery.Encode())
	}
	if gotQuery.Get("max_points_column") != "max_pts" || gotQuery.Get("normalize_column") != "normalize" {
		t.Errorf("Expected column hints in query, got %q", gotQuery.Encode())
	}
}

func TestImportSpreadsheet_MissingFailureCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"test": "foo"}}`))
	})

	result, err := client.ImportSpreadsheet(context.Background(), []byte("a,b,c"), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportSpreadsheet failed: %v", err)
	}
	if result.NumFailures != 0 {
		t.Errorf("Expected missing numFailures to decode as zero, got %d", result.NumFailures)
	}
}

func TestNewFactory_BadCertificate(t *testing.T) {
	_, err := NewFactory(Config{
		URLBase: "https://example.com/",
		Cert:    filepath.Join(t.TempDir(), "missing.pem"),
	})
	if err == nil {
		t.Fatal("Expected error for unreadable certificate file")
	}
}
