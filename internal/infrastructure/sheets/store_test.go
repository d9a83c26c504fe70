package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"SocialFactory/internal/config"
	"SocialFactory/internal/domain"
)

const sheetBody = `{
	"values": [
		["Date", "Topic", "Video_Prompt", "Status", "Video_URL", "Platform", "Caption", "Script", "Workflow_ID"],
		["2026-08-01", "Solar energy", "sunset over panels", "Pending", "", "wordpress", "", "", ""],
		["2026-08-02", "Ocean cleanup", "", "Published", "http://videos/old.mp4", "linkedin", "done", "", "wf_3_x"],
		["2026-08-03", "Urban farming", "", "Pending", "", "", "", "", ""]
	]
}`

type recordedWrite struct {
	Path  string
	Query string
	Value string
}

func newSheetsServer(t *testing.T) (*httptest.Server, *[]recordedWrite) {
	t.Helper()
	var mu sync.Mutex
	writes := &[]recordedWrite{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sheetBody))
		case http.MethodPut:
			var body struct {
				Values [][]string `json:"values"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode write body: %v", err)
			}
			value := ""
			if len(body.Values) > 0 && len(body.Values[0]) > 0 {
				value = body.Values[0][0]
			}
			mu.Lock()
			*writes = append(*writes, recordedWrite{
				Path:  r.URL.Path,
				Query: r.URL.RawQuery,
				Value: value,
			})
			mu.Unlock()
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, writes
}

func newTestStore(baseURL string) *Store {
	return NewStore(config.SheetsConfig{
		BaseURL:       baseURL,
		SpreadsheetID: "sheet-1",
		SheetName:     "Content",
		APIKey:        "secret",
	})
}

func TestListPending(t *testing.T) {
	srv, _ := newSheetsServer(t)
	store := newTestStore(srv.URL)

	items, err := store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d pending items, want 2", len(items))
	}

	first := items[0]
	if first.ID != 2 || first.Topic != "Solar energy" || first.Platform != "wordpress" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.VideoPrompt != "sunset over panels" {
		t.Errorf("video prompt = %q", first.VideoPrompt)
	}
	if first.Date.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("date = %v", first.Date)
	}

	// Row 4 has no platform; the adapter fills in the default.
	second := items[1]
	if second.ID != 4 || second.Platform != "general" {
		t.Errorf("unexpected second item: %+v", second)
	}
}

func TestUpdateStatusWritesPopulatedCells(t *testing.T) {
	srv, writes := newSheetsServer(t)
	store := newTestStore(srv.URL)

	err := store.UpdateStatus(context.Background(), 2, domain.StatusReview, domain.StatusFields{
		VideoURL:   "http://videos/clip.mp4",
		Caption:    "great caption",
		WorkflowID: "wf_2_a",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	// Status, Video_URL, Caption, Workflow_ID plus the Timestamp stamp.
	if len(*writes) != 5 {
		t.Fatalf("got %d cell writes, want 5: %+v", len(*writes), *writes)
	}

	byCell := map[string]recordedWrite{}
	for _, w := range *writes {
		parts := strings.Split(w.Path, "/")
		byCell[parts[len(parts)-1]] = w
	}
	if w, ok := byCell["Content!D2"]; !ok || w.Value != "Review" {
		t.Errorf("status cell write = %+v", w)
	}
	if w, ok := byCell["Content!E2"]; !ok || w.Value != "http://videos/clip.mp4" {
		t.Errorf("video url cell write = %+v", w)
	}
	if w, ok := byCell["Content!I2"]; !ok || w.Value != "wf_2_a" {
		t.Errorf("workflow id cell write = %+v", w)
	}
	if _, ok := byCell["Content!L2"]; !ok {
		t.Error("timestamp cell was not written")
	}

	for _, w := range *writes {
		if !strings.Contains(w.Query, "valueInputOption=RAW") {
			t.Errorf("write missing valueInputOption: %q", w.Query)
		}
		if !strings.Contains(w.Query, "key=secret") {
			t.Errorf("write missing api key: %q", w.Query)
		}
	}
}

func TestUpdateStatusTruncatesLongCells(t *testing.T) {
	srv, writes := newSheetsServer(t)
	store := newTestStore(srv.URL)

	long := strings.Repeat("x", maxCellLen+100)
	if err := store.UpdateStatus(context.Background(), 2, domain.StatusReview, domain.StatusFields{Script: long}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	for _, w := range *writes {
		if len(w.Value) > maxCellLen {
			t.Errorf("cell %s holds %d chars, want <= %d", w.Path, len(w.Value), maxCellLen)
		}
	}
}

func TestGetReview(t *testing.T) {
	srv, _ := newSheetsServer(t)
	store := newTestStore(srv.URL)

	payload, err := store.GetReview(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if payload.Topic != "Ocean cleanup" || payload.Platform != "linkedin" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.VideoURL != "http://videos/old.mp4" || payload.WorkflowID != "wf_3_x" {
		t.Errorf("unexpected payload: %+v", payload)
	}

	if _, err := store.GetReview(context.Background(), 99); err == nil {
		t.Fatal("expected error for missing row")
	}
}

func TestLogErrorAppendsToNotes(t *testing.T) {
	srv, writes := newSheetsServer(t)
	store := newTestStore(srv.URL)

	if err := store.LogError(context.Background(), 2, "video generation timed out"); err != nil {
		t.Fatalf("LogError: %v", err)
	}
	if len(*writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(*writes))
	}
	w := (*writes)[0]
	if !strings.HasSuffix(w.Path, "Content!M2") {
		t.Errorf("notes write path = %q", w.Path)
	}
	if !strings.Contains(w.Value, "video generation timed out") || !strings.HasPrefix(w.Value, "[") {
		t.Errorf("notes value = %q", w.Value)
	}
}

func TestListPendingAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	store := newTestStore(srv.URL)
	if _, err := store.ListPending(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
