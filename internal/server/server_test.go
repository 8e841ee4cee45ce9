package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edumint/edumint/internal/ai"
	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/extract"
	"github.com/edumint/edumint/internal/learner"
	"github.com/edumint/edumint/internal/moderation"
	"github.com/edumint/edumint/internal/quiz"
)

const testGeneration = `{
	"questions": [
		{"question": "Q1?", "options": ["w", "x", "y", "z"]},
		{"question": "Q2?", "options": ["w", "x", "y", "z"]},
		{"question": "Q3?", "options": ["w", "x", "y", "z"]},
		{"question": "Q4?", "options": ["w", "x", "y", "z"]},
		{"question": "Q5?", "options": ["w", "x", "y", "z"]}
	],
	"answers": ["a", "b", "c", "d", "a"]
}`

// taskProvider answers moderation and generation requests differently, the
// way a real completion backend would.
type taskProvider struct {
	moderation string
	generation string
}

func (p *taskProvider) Complete(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	if req.Task == ai.TaskModeration {
		return ai.CompletionResponse{Content: p.moderation}, nil
	}
	return ai.CompletionResponse{Content: p.generation}, nil
}

func newTestServer(t *testing.T, provider *taskProvider) (*Server, learner.Store) {
	t.Helper()

	contents := content.NewMemoryStore()
	quizzes := quiz.NewMemoryStore()
	learners := learner.NewMemoryStore()

	hub := NewHub()
	pipeline := content.NewPipeline(content.PipelineConfig{
		Extractor: extract.New(),
		Gate:      moderation.NewGate(provider),
		Store:     contents,
		Notifier:  hub,
	})

	srv := New(Config{
		Contents: content.NewService(contents, nil),
		Pipeline: pipeline,
		Generator: quiz.NewGenerator(quiz.GeneratorConfig{
			Completer:       provider,
			Contents:        contents,
			Quizzes:         quizzes,
			AllowRegenerate: true,
		}),
		Evaluator: quiz.NewEvaluator(quizzes, learners),
		Quizzes:   quiz.NewReader(quizzes, nil),
		Learners:  learners,
		Events:    hub,
		UploadDir: t.TempDir(),
	})
	return srv, learners
}

func asUser(req *http.Request, userID, role string) *http.Request {
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-User-Role", role)
	return req
}

// uploadRequest builds a multipart content upload.
func uploadRequest(t *testing.T, text string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("topicName", "Photosynthesis")
	_ = mw.WriteField("subjectName", "Science")
	_ = mw.WriteField("standard", "6")
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, text); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/content", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMissingIdentity(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateContent_Published(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	rec := doRequest(srv, asUser(uploadRequest(t, "Plants convert light into energy."), "creator-1", "creator"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var item content.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !item.Verified {
		t.Error("item.Verified = false, want true after a clean verdict")
	}
	if item.Summary == "" {
		t.Error("item.Summary is empty, want extracted text")
	}
	if item.FileSignature == "" {
		t.Error("item.FileSignature is empty")
	}
	if _, err := os.Stat(item.File); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}
}

func TestCreateContent_Rejected(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "contains hate speech"})

	rec := doRequest(srv, asUser(uploadRequest(t, "something vile"), "creator-1", "creator"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "contains hate speech") {
		t.Errorf("response should carry the moderation reason, got %s", rec.Body.String())
	}

	// The record must be gone.
	list := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/content", nil), "creator-1", "creator"))
	var items []content.Item
	if err := json.Unmarshal(list.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("rejected content still listed: %+v", items)
	}
}

func TestCreateContent_LearnerForbidden(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	rec := doRequest(srv, asUser(uploadRequest(t, "some notes"), "learner-1", "learner"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCreateContent_BadStandard(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("topicName", "Topic")
	_ = mw.WriteField("subjectName", "Subject")
	_ = mw.WriteField("standard", "sixth")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/content", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := doRequest(srv, asUser(req, "creator-1", "creator"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// publishContent uploads clean content and returns its id.
func publishContent(t *testing.T, srv *Server) string {
	t.Helper()

	rec := doRequest(srv, asUser(uploadRequest(t, "Plants convert light into energy."), "creator-1", "creator"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	var item content.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	return item.ID
}

func TestQuizLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true", generation: testGeneration})
	contentID := publishContent(t, srv)

	// Generate.
	gen := doRequest(srv, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/content/"+contentID+"/quiz", nil), "creator-1", "creator"))
	if gen.Code != http.StatusCreated {
		t.Fatalf("generate status = %d: %s", gen.Code, gen.Body.String())
	}
	var generated quiz.Quiz
	if err := json.Unmarshal(gen.Body.Bytes(), &generated); err != nil {
		t.Fatalf("unmarshal quiz: %v", err)
	}
	if len(generated.Questions) != quiz.QuestionCount {
		t.Fatalf("len(Questions) = %d, want %d", len(generated.Questions), quiz.QuestionCount)
	}

	// Learner fetch strips answers.
	get := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/content/"+contentID+"/quiz", nil), "learner-1", "learner"))
	if get.Code != http.StatusOK {
		t.Fatalf("fetch status = %d: %s", get.Code, get.Body.String())
	}
	if strings.Contains(get.Body.String(), `"answers"`) {
		t.Errorf("learner response carries answers: %s", get.Body.String())
	}

	// Reviewer fetch includes them.
	review := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/quiz/"+generated.ID+"/review", nil), "reviewer-1", "reviewer"))
	if review.Code != http.StatusOK {
		t.Fatalf("review status = %d: %s", review.Code, review.Body.String())
	}
	if !strings.Contains(review.Body.String(), `"answers"`) {
		t.Error("reviewer response is missing answers")
	}

	// Learner review is forbidden.
	denied := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/quiz/"+generated.ID+"/review", nil), "learner-1", "learner"))
	if denied.Code != http.StatusForbidden {
		t.Errorf("learner review status = %d, want %d", denied.Code, http.StatusForbidden)
	}
}

func evaluateRequestFor(quizID string, answers []int) *http.Request {
	body, _ := json.Marshal(map[string][]int{"answers": answers})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/"+quizID+"/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestEvaluateQuiz(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true", generation: testGeneration})
	contentID := publishContent(t, srv)

	gen := doRequest(srv, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/content/"+contentID+"/quiz", nil), "creator-1", "creator"))
	var generated quiz.Quiz
	if err := json.Unmarshal(gen.Body.Bytes(), &generated); err != nil {
		t.Fatalf("unmarshal quiz: %v", err)
	}

	// Perfect submission: answers a,b,c,d,a map to indexes 0,1,2,3,0.
	rec := doRequest(srv, asUser(evaluateRequestFor(generated.ID, []int{0, 1, 2, 3, 0}), "learner-1", "learner"))
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate status = %d: %s", rec.Code, rec.Body.String())
	}
	var result quiz.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.CorrectAnswers != 5 || result.ScorePercentage != 100 {
		t.Errorf("result = %+v, want 5 correct at 100%%", result)
	}
	if result.CoinsEarned != 45 {
		t.Errorf("CoinsEarned = %d, want 45 on the first attempt", result.CoinsEarned)
	}

	// A second run against solved content is refused.
	again := doRequest(srv, asUser(evaluateRequestFor(generated.ID, []int{0, 1, 2, 3, 0}), "learner-1", "learner"))
	if again.Code != http.StatusConflict {
		t.Errorf("repeat evaluate status = %d, want %d", again.Code, http.StatusConflict)
	}

	// Profile reflects the earned coins.
	profile := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/learner/profile", nil), "learner-1", "learner"))
	var p learner.Profile
	if err := json.Unmarshal(profile.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if p.Wallet != 45 {
		t.Errorf("Wallet = %d, want 45", p.Wallet)
	}
}

func TestEvaluateQuiz_BadBody(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/q1/evaluate", strings.NewReader("not json"))
	rec := doRequest(srv, asUser(req, "learner-1", "learner"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVerifyAndDelete(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})
	contentID := publishContent(t, srv)

	// Learner cannot verify.
	rec := doRequest(srv, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/content/"+contentID+"/verify", nil), "learner-1", "learner"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("learner verify status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = doRequest(srv, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/content/"+contentID+"/verify", nil), "reviewer-1", "reviewer"))
	if rec.Code != http.StatusOK {
		t.Errorf("reviewer verify status = %d, want %d", rec.Code, http.StatusOK)
	}

	// A stranger creator cannot delete someone else's upload.
	rec = doRequest(srv, asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/content/"+contentID, nil), "creator-2", "creator"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger delete status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = doRequest(srv, asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/content/"+contentID, nil), "creator-1", "creator"))
	if rec.Code != http.StatusOK {
		t.Errorf("owner delete status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/content/"+contentID, nil), "creator-1", "creator"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreatorStats(t *testing.T) {
	srv, _ := newTestServer(t, &taskProvider{moderation: "true"})
	publishContent(t, srv)

	rec := doRequest(srv, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/content/stats", nil), "creator-1", "creator"))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", rec.Code, rec.Body.String())
	}
	var stats content.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.Verified != 1 {
		t.Errorf("Verified = %d, want 1", stats.Verified)
	}
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	srv := New(Config{UploadDir: filepath.Join(dir, "uploads")})

	path, err := srv.saveUpload("c1", "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("saveUpload: %v", err)
	}
	if filepath.Ext(path) != ".txt" {
		t.Errorf("path = %q, want .txt extension preserved", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("saved content = %q, want %q", data, "hello")
	}
}
