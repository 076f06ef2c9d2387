package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// recordingServer captures the last request line and serves a fixed
// JSON body.
func recordingServer(body string) (*httptest.Server, *string, *string) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			method, path = r.Method, r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		}))
	return srv, &method, &path
}

func TestCommentEndpoints(t *testing.T) {
	srv, method, path := recordingServer(
		`{"id":"c1","ticket_id":"5","content":"hi","author":{"id":"u1","name":"Ana"}}`,
	)
	defer srv.Close()

	client := NewClient(srv.URL, "tok", time.Second)
	ctx := context.Background()

	if _, err := client.CreateComment(ctx, "5", "hi", "corr-1"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if *method != http.MethodPost || *path != "/commentaires/5" {
		t.Errorf("CreateComment hit %s %s, want POST /commentaires/5", *method, *path)
	}

	if err := client.DeleteComment(ctx, "c1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if *method != http.MethodDelete || *path != "/commentaires/c1" {
		t.Errorf("DeleteComment hit %s %s, want DELETE /commentaires/c1", *method, *path)
	}
}

func TestAttachmentEndpoints(t *testing.T) {
	srv, method, path := recordingServer(
		`{"id":"p1","ticket_id":"5","filename":"log.txt","size":3,"author":{"id":"u1","name":"Ana"}}`,
	)
	defer srv.Close()

	client := NewClient(srv.URL, "tok", time.Second)
	ctx := context.Background()

	attachment, err := client.CreateAttachment(
		ctx, "5", "log.txt", strings.NewReader("abc"),
	)
	if err != nil {
		t.Fatalf("CreateAttachment: %v", err)
	}
	if *method != http.MethodPost || *path != "/pieces-jointes/5" {
		t.Errorf("CreateAttachment hit %s %s, want POST /pieces-jointes/5", *method, *path)
	}
	if attachment.Filename != "log.txt" {
		t.Errorf("attachment filename = %s, want log.txt", attachment.Filename)
	}

	if err := client.DeleteAttachment(ctx, "p1"); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
	if *method != http.MethodDelete || *path != "/pieces-jointes/p1" {
		t.Errorf("DeleteAttachment hit %s %s, want DELETE /pieces-jointes/p1", *method, *path)
	}
}

func TestAssignAgentEndpoint(t *testing.T) {
	srv, method, path := recordingServer(
		`{"id":"5","title":"VPN down","status":"open","category":"question",` +
			`"creator":{"id":"u1","name":"Ana"},"assigned_agent":{"id":"a1","name":"Sam"}}`,
	)
	defer srv.Close()

	client := NewClient(srv.URL, "tok", time.Second)

	updated, err := client.AssignAgent(context.Background(), "5", "a1")
	if err != nil {
		t.Fatalf("AssignAgent: %v", err)
	}
	if *method != http.MethodPost || *path != "/tickets/5/assignerAgent" {
		t.Errorf("AssignAgent hit %s %s, want POST /tickets/5/assignerAgent", *method, *path)
	}
	if updated.AssignedAgent == nil || updated.AssignedAgent.ID != "a1" {
		t.Errorf("assigned agent = %+v, want a1", updated.AssignedAgent)
	}
}
