package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfredjeanlab/taskgrid/internal/server"
	"github.com/alfredjeanlab/taskgrid/internal/store/memory"
)

// startServers runs a real GridServer over both transports, backed by an
// in-memory store.
func startServers(t *testing.T, token string) (*HTTPClient, *GRPCClient) {
	t.Helper()
	gs := server.NewGridServer(memory.New(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	httpSrv := httptest.NewServer(gs.NewHTTPHandler(token))
	t.Cleanup(httpSrv.Close)

	lis := bufconn.Listen(1 << 20)
	grpcSrv := server.NewGRPCServer(gs, token)
	go func() { _ = grpcSrv.Serve(lis) }()
	t.Cleanup(grpcSrv.Stop)

	gc, err := NewGRPCClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewGRPCClient: %v", err)
	}
	t.Cleanup(func() { gc.Close() })

	return NewHTTPClient(httpSrv.URL, token), gc
}

func TestGRPCClient_TreeMatchesHTTP(t *testing.T) {
	hc, gc := startServers(t, "tok")
	ctx := context.Background()

	epic, err := hc.CreateTask(ctx, &CreateTaskRequest{ProjectID: "web", Title: "Epic", Type: "epic"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	for _, title := range []string{"Story 1", "Story 2"} {
		if _, err := hc.CreateTask(ctx, &CreateTaskRequest{ParentID: epic.ID, Title: title}); err != nil {
			t.Fatalf("CreateTask(%s): %v", title, err)
		}
	}
	if _, err := hc.CreateTask(ctx, &CreateTaskRequest{ProjectID: "web", Title: "Loose end"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	req := &TreeRequest{ProjectID: "web", Expanded: []string{epic.ID}, VisibleOnly: true}
	viaHTTP, err := hc.Tree(ctx, req)
	if err != nil {
		t.Fatalf("HTTP Tree: %v", err)
	}
	viaGRPC, err := gc.Tree(ctx, req)
	if err != nil {
		t.Fatalf("gRPC Tree: %v", err)
	}

	titles := func(r *TreeResponse) []string {
		var out []string
		for _, row := range r.Rows {
			out = append(out, row.Task.Title)
		}
		return out
	}
	want := []string{"Epic", "Story 1", "Story 2", "Loose end"}
	for name, resp := range map[string]*TreeResponse{"http": viaHTTP, "grpc": viaGRPC} {
		got := titles(resp)
		if len(got) != len(want) {
			t.Fatalf("%s rows = %v, want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s row %d = %q, want %q", name, i, got[i], want[i])
			}
		}
		if resp.Total != 4 || resp.Visible != 4 {
			t.Errorf("%s total/visible = %d/%d, want 4/4", name, resp.Total, resp.Visible)
		}
		if resp.Rows[1].Depth != 1 || !resp.Rows[0].HasChildren {
			t.Errorf("%s unexpected row shape: %+v", name, resp.Rows[:2])
		}
	}
}

func TestGRPCClient_Errors(t *testing.T) {
	_, gc := startServers(t, "tok")
	ctx := context.Background()

	_, err := gc.Tree(ctx, &TreeRequest{ProjectID: "web", View: "missing"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("unknown view: code = %v, want NotFound", status.Code(err))
	}

	bad := &GRPCClient{conn: gc.conn, token: "wrong"}
	if _, err := bad.Tree(ctx, &TreeRequest{ProjectID: "web"}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("bad token: code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestGRPCClient_Health(t *testing.T) {
	_, gc := startServers(t, "tok")

	got, err := gc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if got != "SERVING" {
		t.Errorf("status = %q, want SERVING", got)
	}
}

func TestHTTPClient_AgainstServer(t *testing.T) {
	hc, _ := startServers(t, "tok")
	ctx := context.Background()

	a, err := hc.CreateTask(ctx, &CreateTaskRequest{ProjectID: "web", Title: "A"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	b, err := hc.CreateTask(ctx, &CreateTaskRequest{ProjectID: "web", Title: "B"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	moved, err := hc.MoveTask(ctx, b.ID, &MoveTaskRequest{ParentID: &a.ID})
	if err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if moved.Parent() != a.ID {
		t.Errorf("parent = %q, want %q", moved.Parent(), a.ID)
	}

	_, err = hc.MoveTask(ctx, a.ID, &MoveTaskRequest{ParentID: &b.ID})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("cycle move error = %v, want HTTP 409", err)
	}

	unauth := NewHTTPClient(hc.baseURL, "")
	if _, err := unauth.GetTask(ctx, a.ID); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated error = %v, want HTTP 401", err)
	}
}
