package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"

	"SocialFactory/internal/config"
	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
)

// Spreadsheet columns, one-based. The sheet layout is fixed:
// A=Date B=Topic C=Video_Prompt D=Status E=Video_URL F=Platform G=Caption
// H=Script I=Workflow_ID J=Post_ID K=Approved_By L=Timestamp M=Notes.
const (
	colStatus     = "D"
	colVideoURL   = "E"
	colCaption    = "G"
	colScript     = "H"
	colWorkflowID = "I"
	colPostID     = "J"
	colApprovedBy = "K"
	colTimestamp  = "L"
	colNotes      = "M"
)

// Cells above this length are truncated before writing; spreadsheet cells
// cap out at 50k characters and long scripts bloat the sheet anyway.
const maxCellLen = 5000

// Store is a ContentStore over a spreadsheet values REST API. Row 1 is the
// header; content ids are absolute row numbers, so the first item is row 2.
type Store struct {
	baseURL       string
	spreadsheetID string
	sheetName     string
	apiKey        string
	client        *http.Client
}

var _ ports.ContentStore = (*Store)(nil)

// NewStore builds the adapter from configuration.
func NewStore(cfg config.SheetsConfig) *Store {
	return &Store{
		baseURL:       cfg.BaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		apiKey:        cfg.APIKey,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// ListPending returns all rows whose Status column reads Pending.
func (s *Store) ListPending(ctx context.Context) ([]domain.ContentItem, error) {
	records, err := s.fetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	var pending []domain.ContentItem
	for i, record := range records {
		if cast.ToString(record["Status"]) != string(domain.StatusPending) {
			continue
		}
		item := domain.ContentItem{
			ID:          i + 2, // header occupies row 1
			Topic:       cast.ToString(record["Topic"]),
			VideoPrompt: cast.ToString(record["Video_Prompt"]),
			Platform:    cast.ToString(record["Platform"]),
			Status:      domain.StatusPending,
		}
		if item.Platform == "" {
			item.Platform = "general"
		}
		if raw := cast.ToString(record["Date"]); raw != "" {
			if parsed, err := time.Parse("2006-01-02", raw); err == nil {
				item.Date = parsed
			}
		}
		pending = append(pending, item)
	}
	return pending, nil
}

// UpdateStatus writes the status cell plus any populated optional fields, and
// stamps the Timestamp column.
func (s *Store) UpdateStatus(ctx context.Context, id int, status domain.Status, fields domain.StatusFields) error {
	cells := []struct {
		col   string
		value string
	}{
		{colStatus, string(status)},
		{colVideoURL, fields.VideoURL},
		{colCaption, truncate(fields.Caption)},
		{colScript, truncate(fields.Script)},
		{colWorkflowID, fields.WorkflowID},
		{colPostID, fields.PostID},
		{colApprovedBy, fields.ApprovedBy},
		{colTimestamp, time.Now().Format(time.RFC3339)},
	}

	for _, cell := range cells {
		if cell.value == "" {
			continue
		}
		if err := s.writeCell(ctx, cell.col, id, cell.value); err != nil {
			return fmt.Errorf("update row %d column %s: %w", id, cell.col, err)
		}
	}
	return nil
}

// GetReview reads the durable review payload back from a row.
func (s *Store) GetReview(ctx context.Context, id int) (domain.ReviewPayload, error) {
	records, err := s.fetchRecords(ctx)
	if err != nil {
		return domain.ReviewPayload{}, fmt.Errorf("fetch records: %w", err)
	}

	idx := id - 2
	if idx < 0 || idx >= len(records) {
		return domain.ReviewPayload{}, fmt.Errorf("content row %d not found", id)
	}

	record := records[idx]
	return domain.ReviewPayload{
		ContentID:  id,
		Topic:      cast.ToString(record["Topic"]),
		Platform:   cast.ToString(record["Platform"]),
		VideoURL:   cast.ToString(record["Video_URL"]),
		Caption:    cast.ToString(record["Caption"]),
		Script:     cast.ToString(record["Script"]),
		WorkflowID: cast.ToString(record["Workflow_ID"]),
	}, nil
}

// LogError appends a timestamped error line to the row's Notes column.
func (s *Store) LogError(ctx context.Context, id int, message string) error {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), message)
	if err := s.writeCell(ctx, colNotes, id, truncate(line)); err != nil {
		return fmt.Errorf("log error for row %d: %w", id, err)
	}
	return nil
}

// fetchRecords pulls the whole sheet and returns header-keyed rows.
func (s *Store) fetchRecords(ctx context.Context) ([]map[string]any, error) {
	if s.baseURL == "" || s.spreadsheetID == "" {
		return nil, fmt.Errorf("sheets store misconfigured")
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s", s.baseURL, s.spreadsheetID, url.PathEscape(s.sheetName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.signed(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets api returned %s", resp.Status)
	}

	var out struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Values) < 1 {
		return nil, nil
	}

	header := make([]string, len(out.Values[0]))
	for i, h := range out.Values[0] {
		header[i] = cast.ToString(h)
	}

	records := make([]map[string]any, 0, len(out.Values)-1)
	for _, row := range out.Values[1:] {
		record := map[string]any{}
		for i, cell := range row {
			if i < len(header) {
				record[header[i]] = cell
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) writeCell(ctx context.Context, col string, row int, value string) error {
	rangeRef := fmt.Sprintf("%s!%s%d", s.sheetName, col, row)
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", s.baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	body, err := json.Marshal(map[string]any{
		"values": [][]string{{value}},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.signed(endpoint), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets api returned %s", resp.Status)
	}
	return nil
}

func (s *Store) signed(endpoint string) string {
	if s.apiKey == "" {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "key=" + url.QueryEscape(s.apiKey)
}

func truncate(value string) string {
	if len(value) > maxCellLen {
		return value[:maxCellLen]
	}
	return value
}
