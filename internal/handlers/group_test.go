package handlers

import (
	"context"
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/save"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

func TestGroupRoutesByHandlerKind(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	g := NewGroup(pool, save.NewStore(t.TempDir()))

	for _, kind := range []domain.HandlerKind{domain.HandlerSync, domain.HandlerPipelined, domain.HandlerAsync} {
		p := seedParams()
		p.Handler = kind
		if err := g.HandleParamsRequest(p); err != nil {
			t.Fatalf("HandleParamsRequest(kind=%v): %v", kind, err)
		}
		res, err := g.HandleFractalRequest(context.Background(), p)
		if err != nil {
			t.Fatalf("HandleFractalRequest(kind=%v): %v", kind, err)
		}
		if len(res.PNGBytes) == 0 {
			t.Fatalf("kind=%v: expected non-empty PNG bytes", kind)
		}
	}
}

func TestGroupSaveThenLoadThenList(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	g := NewGroup(pool, save.NewStore(t.TempDir()))

	req := SaveRequest{Params: seedParams(), Scale: 2, File: "snapshot", Metadata: `{"note":"s1"}`}
	res := g.HandleSaveRequest(req)
	if !res.Success {
		t.Fatalf("HandleSaveRequest: success=false, error=%q", res.ErrorMessage)
	}

	meta, err := g.HandleLoadRequest("snapshot")
	if err != nil {
		t.Fatalf("HandleLoadRequest: %v", err)
	}
	if meta != req.Metadata {
		t.Fatalf("loaded metadata = %q, want %q", meta, req.Metadata)
	}

	names, err := g.HandleListRequest()
	if err != nil {
		t.Fatalf("HandleListRequest: %v", err)
	}
	if len(names) != 1 || names[0] != "snapshot" {
		t.Fatalf("names = %v, want [snapshot]", names)
	}
}

func TestGroupSaveCollisionReportsFailureNotError(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	g := NewGroup(pool, save.NewStore(t.TempDir()))

	req := SaveRequest{Params: seedParams(), Scale: 1, File: "dup", Metadata: "m"}
	if res := g.HandleSaveRequest(req); !res.Success {
		t.Fatalf("first save: success=false, error=%q", res.ErrorMessage)
	}

	res := g.HandleSaveRequest(req)
	if res.Success {
		t.Fatal("second save with the same file: want success=false")
	}
	if res.ErrorMessage == "" {
		t.Fatal("expected a human-readable error message on collision")
	}
}
