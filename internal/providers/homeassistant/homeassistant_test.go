package homeassistant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetSwitchCallsCorrectService(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "test-token")
	if err := c.SetSwitch("kitchen_light", true); err != nil {
		t.Fatalf("SetSwitch: %v", err)
	}
	if gotPath != "/api/services/switch/turn_on" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["entity_id"] != "switch.kitchen_light" {
		t.Errorf("entity_id = %q", gotBody["entity_id"])
	}
}

func TestActivateSceneReturnsErrorOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, "test-token")
	if err := c.ActivateScene("movie_night"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestDigestFiltersToSwitchesAndLights(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"entity_id":"switch.kitchen_light","state":"on"},{"entity_id":"sensor.temp","state":"21"},{"entity_id":"light.hallway","state":"off"}]`))
	}))
	defer server.Close()

	c := New(server.URL, "test-token")
	digest, err := c.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if !strings.Contains(digest, "switch.kitchen_light: on") {
		t.Errorf("digest missing switch entry: %q", digest)
	}
	if !strings.Contains(digest, "light.hallway: off") {
		t.Errorf("digest missing light entry: %q", digest)
	}
	if strings.Contains(digest, "sensor.temp") {
		t.Errorf("digest should not include sensors: %q", digest)
	}
}
