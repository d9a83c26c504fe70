package usecase

import (
	"context"
	"fmt"
	"sync"

	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
)

// statusWrite captures one UpdateStatus call against the fake store.
type statusWrite struct {
	ID     int
	Status domain.Status
	Fields domain.StatusFields
}

type fakeStore struct {
	mu        sync.Mutex
	pending   []domain.ContentItem
	reviews   map[int]domain.ReviewPayload
	writes    []statusWrite
	errorLogs map[int][]string

	listErr   error
	updateErr error
	reviewErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews:   map[int]domain.ReviewPayload{},
		errorLogs: map[int][]string{},
	}
}

func (s *fakeStore) ListPending(ctx context.Context) ([]domain.ContentItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ContentItem, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id int, status domain.Status, fields domain.StatusFields) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, statusWrite{ID: id, Status: status, Fields: fields})
	return nil
}

func (s *fakeStore) GetReview(ctx context.Context, id int) (domain.ReviewPayload, error) {
	if s.reviewErr != nil {
		return domain.ReviewPayload{}, s.reviewErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.reviews[id]
	if !ok {
		return domain.ReviewPayload{}, fmt.Errorf("content row %d not found", id)
	}
	return payload, nil
}

func (s *fakeStore) LogError(ctx context.Context, id int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorLogs[id] = append(s.errorLogs[id], message)
	return nil
}

// statusesFor returns the sequence of statuses written for one row.
func (s *fakeStore) statusesFor(id int) []domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Status
	for _, w := range s.writes {
		if w.ID == id {
			out = append(out, w.Status)
		}
	}
	return out
}

type fakeScripts struct {
	mu    sync.Mutex
	err   error
	calls int
	// failFor fails only the given topic, for sibling-independence tests.
	failFor string
}

func (f *fakeScripts) GenerateScripts(ctx context.Context, req ports.ScriptRequest) ([]ports.ScriptVariant, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.failFor != "" && req.Topic == f.failFor {
		return nil, fmt.Errorf("model refused topic %q", req.Topic)
	}
	return []ports.ScriptVariant{
		{ID: "A", Text: "script about " + req.Topic, Style: "educational", DurationEstimateSec: 10},
		{ID: "B", Text: "alt script", Style: "conversational", DurationEstimateSec: 12},
	}, nil
}

type fakeVideos struct {
	err     error
	prompts []string
	mu      sync.Mutex
}

func (f *fakeVideos) GenerateVideo(ctx context.Context, prompt string) (ports.Video, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return ports.Video{}, f.err
	}
	return ports.Video{URL: "http://videos/clip.mp4"}, nil
}

type fakeCaptions struct {
	err error
}

func (f *fakeCaptions) GenerateCaption(ctx context.Context, req ports.CaptionRequest) (ports.Caption, error) {
	if f.err != nil {
		return ports.Caption{}, f.err
	}
	return ports.Caption{Text: "great caption", Hashtags: []string{"ai", "video"}}, nil
}

type fakeTrends struct {
	err error
}

func (f *fakeTrends) AnalyzeTrend(ctx context.Context, topic string) (ports.TrendInsight, error) {
	if f.err != nil {
		return ports.TrendInsight{}, f.err
	}
	return ports.TrendInsight{Summary: "trending: " + topic}, nil
}

type publishCall struct {
	Req ports.PublishRequest
}

type fakePublisher struct {
	name  string
	err   error
	mu    sync.Mutex
	calls []publishCall
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(ctx context.Context, req ports.PublishRequest) (ports.PostRef, error) {
	f.mu.Lock()
	f.calls = append(f.calls, publishCall{Req: req})
	f.mu.Unlock()
	if f.err != nil {
		return ports.PostRef{}, f.err
	}
	return ports.PostRef{PostID: "101", PostURL: "http://" + f.name + "/posts/101"}, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type notification struct {
	Message string
	Level   ports.Level
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []notification
	approvals     []ports.ApprovalNotice
	notifyErr     error
	approvalErr   error
}

func (f *fakeNotifier) Notify(ctx context.Context, message string, level ports.Level) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.mu.Lock()
	f.notifications = append(f.notifications, notification{Message: message, Level: level})
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) RequestApproval(ctx context.Context, notice ports.ApprovalNotice) error {
	if f.approvalErr != nil {
		return f.approvalErr
	}
	f.mu.Lock()
	f.approvals = append(f.approvals, notice)
	f.mu.Unlock()
	return nil
}
