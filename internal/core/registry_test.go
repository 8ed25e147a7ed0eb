package core

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type testFeature struct {
	*BaseFeature
	initErr  error
	initDone bool
}

func (f *testFeature) Init(ctx context.Context) error {
	f.initDone = true
	return f.initErr
}

func (f *testFeature) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/" + f.Name(), Handler: func(http.ResponseWriter, *http.Request) {}}}
}

func newTestFeature(name string, enabled bool) *testFeature {
	return &testFeature{BaseFeature: NewBaseFeature(name, name+" feature", enabled, NewDiscardLogger(), nil)}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(NewDiscardLogger())
	on := newTestFeature("impact", true)
	off := newTestFeature("web", false)

	for _, f := range []Feature{on, off} {
		if err := registry.Register(f); err != nil {
			t.Fatalf("Register(%s) failed: %v", f.Name(), err)
		}
	}
	if err := registry.Register(newTestFeature("impact", true)); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	status := registry.GetFeatureStatus()
	if s, ok := status["web"]; !ok || s.Enabled {
		t.Errorf("status[web] = %+v, %v", s, ok)
	}
	if _, ok := status["unknown"]; ok {
		t.Error("status lists an unregistered feature")
	}

	if got := len(registry.ListEnabled()); got != 1 {
		t.Errorf("ListEnabled returned %d features, want 1", got)
	}

	routes := registry.GetAllRoutes()
	if len(routes) != 1 || routes[0].Path != "/impact" {
		t.Errorf("GetAllRoutes = %+v", routes)
	}

	if err := registry.InitAll(context.Background()); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if !on.initDone || off.initDone {
		t.Error("only enabled features are initialized")
	}

	status = registry.GetFeatureStatus()
	if !status["impact"].Enabled || status["web"].Enabled || status["web"].Description != "web feature" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestRegistryInitError(t *testing.T) {
	registry := NewRegistry(NewDiscardLogger())
	failing := newTestFeature("impact", true)
	failing.initErr = errors.New("migrations failed")

	if err := registry.Register(failing); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.InitAll(context.Background()); !errors.Is(err, failing.initErr) {
		t.Errorf("InitAll error = %v, want it to wrap the feature error", err)
	}
}
