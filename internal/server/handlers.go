package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/principal"
)

// maxUploadBytes caps a single content upload.
const maxUploadBytes = 32 << 20

// handleCreateContent accepts a multipart upload, records the content item
// and runs it through the extraction and moderation pipeline. The response
// is the published item, or a rejection if moderation refused it.
func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	standard, err := strconv.Atoi(r.FormValue("standard"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "standard must be a number")
		return
	}

	item := content.Item{
		TopicName:   r.FormValue("topicName"),
		SubjectName: r.FormValue("subjectName"),
		Standard:    standard,
		Video:       r.FormValue("video"),
	}
	if item.TopicName == "" || item.SubjectName == "" {
		writeError(w, http.StatusBadRequest, "topicName and subjectName are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	id, err := s.cfg.Contents.Create(r.Context(), caller, item)
	if err != nil {
		respondError(w, err)
		return
	}

	path, err := s.saveUpload(id, header.Filename, file)
	if err != nil {
		slog.Error("saving upload", "content_id", id, "error", err)
		respondError(w, err)
		return
	}

	published, err := s.cfg.Pipeline.Publish(r.Context(), id, path)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, published)
}

// saveUpload writes the uploaded file under the upload directory, named
// after the content id so re-uploads overwrite rather than accumulate.
func (s *Server) saveUpload(contentID, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	path := filepath.Join(s.cfg.UploadDir, contentID+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	return path, nil
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	items, err := s.cfg.Contents.List(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	item, err := s.cfg.Contents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	if err := s.cfg.Contents.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleVerifyContent(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	item, err := s.cfg.Contents.Verify(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreatorStats(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	stats, err := s.cfg.Contents.CreatorStats(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	q, err := s.cfg.Generator.Generate(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleContentQuizzes(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	quizzes, err := s.cfg.Quizzes.ForContent(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) handleReviewQuiz(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	q, err := s.cfg.Quizzes.Review(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type evaluateRequest struct {
	Answers []int `json:"answers"`
}

func (s *Server) handleEvaluateQuiz(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.cfg.Evaluator.Evaluate(r.Context(), caller.UserID, r.PathValue("id"), req.Answers)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, caller principal.Principal) {
	profile, err := s.cfg.Learners.Profile(r.Context(), caller.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
