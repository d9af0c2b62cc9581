package dataset

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchDownloadsOnce(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "data", "sample.csv")
	if err := Fetch(server.URL, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Fetch(server.URL, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 download, got %d", hits)
	}

	frame, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", frame.NumRows())
	}
}

func TestFetchSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "missing.csv")
	err := Fetch(server.URL, path)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("failed download must not leave a file behind")
	}
}
