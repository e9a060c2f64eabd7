package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sgescale/gridwatch/watcher"
)

func TestPublish(t *testing.T) {
	var got watcher.Decision
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected json content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Error decoding decision: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := watcher.Decision{CycleID: "cycle1", RequiredNodes: 2, BusyNodes: 1}
	if err := NewClient(server.URL).Publish(d); err != nil {
		t.Fatalf("Unexpected error publishing: %v", err)
	}
	if got.CycleID != "cycle1" || got.RequiredNodes != 2 || got.BusyNodes != 1 {
		t.Errorf("Controller received %+v", got)
	}
}

func TestPublishServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no thanks", http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewClient(server.URL).Publish(watcher.Decision{CycleID: "cycle1"})
	if err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
}
