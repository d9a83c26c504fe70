package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SocialFactory/internal/config"
	"SocialFactory/internal/ports"
)

type wpPost struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

func newWPServer(t *testing.T, received *[]wpPost, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		*auth = r.Header.Get("Authorization")
		var p wpPost
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode post body: %v", err)
		}
		*received = append(*received, p)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":   42,
			"link": "https://blog.example.com/?p=42",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPublishPost(t *testing.T) {
	var received []wpPost
	var auth string
	srv := newWPServer(t, &received, &auth)

	p := NewPublisher(config.WordPressConfig{
		SiteURL:     srv.URL + "/",
		Username:    "editor",
		AppPassword: "app-pass",
	})

	ref, err := p.Publish(context.Background(), ports.PublishRequest{
		Title:    "Solar energy",
		Text:     "great caption",
		MediaURL: "http://videos/clip.mp4",
		Tags:     []string{"ai", "video"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if ref.PostID != "42" || ref.PostURL != "https://blog.example.com/?p=42" {
		t.Errorf("unexpected post ref: %+v", ref)
	}
	if len(received) != 1 {
		t.Fatalf("got %d posts, want 1", len(received))
	}

	post := received[0]
	if post.Status != "publish" || post.Title != "Solar energy" {
		t.Errorf("unexpected post: %+v", post)
	}
	if !strings.Contains(post.Content, "<p>great caption</p>") {
		t.Errorf("content missing caption: %q", post.Content)
	}
	if !strings.Contains(post.Content, `src="http://videos/clip.mp4"`) {
		t.Errorf("content missing video embed: %q", post.Content)
	}
	// editor:app-pass base64-encoded.
	if auth != "Basic ZWRpdG9yOmFwcC1wYXNz" {
		t.Errorf("auth header = %q", auth)
	}
}

func TestPublishDraft(t *testing.T) {
	var received []wpPost
	var auth string
	srv := newWPServer(t, &received, &auth)

	p := NewPublisher(config.WordPressConfig{SiteURL: srv.URL, Username: "editor", AppPassword: "x"})

	if _, err := p.Publish(context.Background(), ports.PublishRequest{Title: "t", Text: "c", Draft: true}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(received) != 1 || received[0].Status != "draft" {
		t.Fatalf("expected one draft post, got %+v", received)
	}
}

func TestPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"rest_cannot_create"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewPublisher(config.WordPressConfig{SiteURL: srv.URL, Username: "editor", AppPassword: "x"})
	if _, err := p.Publish(context.Background(), ports.PublishRequest{Title: "t"}); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestPublishMisconfigured(t *testing.T) {
	p := NewPublisher(config.WordPressConfig{})
	if _, err := p.Publish(context.Background(), ports.PublishRequest{Title: "t"}); err == nil {
		t.Fatal("expected error when site url is empty")
	}
}
