package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sitemeter/internal/model"
	"sitemeter/internal/publisher"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 64 << 20

type userInfoResponse struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Port        int    `json:"port"`
}

type usageSummaryResponse struct {
	TotalVisits   int     `json:"total_visits"`
	TotalDuration float64 `json:"total_duration"`
	TotalCost     float64 `json:"total_cost"`
}

type dailyUsageResponse struct {
	Date          string  `json:"date"`
	TotalVisits   int     `json:"total_visits"`
	TotalDuration float64 `json:"total_duration"`
	TotalCost     float64 `json:"total_cost"`
}

type usageResponse struct {
	UserID  string               `json:"user_id"`
	Days    int                  `json:"days"`
	Summary usageSummaryResponse `json:"summary"`
	Daily   []dailyUsageResponse `json:"daily"`
}

func usageResponseFrom(report model.UsageReport) usageResponse {
	resp := usageResponse{
		UserID: report.UserID,
		Days:   report.Days,
		Summary: usageSummaryResponse{
			TotalVisits:   report.Summary.TotalVisits,
			TotalDuration: report.Summary.TotalDurationSecs,
			TotalCost:     report.Summary.TotalCost,
		},
		Daily: make([]dailyUsageResponse, 0, len(report.Daily)),
	}
	for _, d := range report.Daily {
		resp.Daily = append(resp.Daily, dailyUsageResponse{
			Date:          d.Date.Format("2006-01-02"),
			TotalVisits:   d.Visits,
			TotalDuration: d.DurationSecs,
			TotalCost:     d.Cost,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) userInfo() userInfoResponse {
	return userInfoResponse{
		UserID:      s.cfg.UserID,
		Name:        s.cfg.UserName,
		Email:       s.cfg.UserEmail,
		Description: s.cfg.Description,
		Port:        s.cfg.Port,
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("rendering %s: %v", name, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The admin flag only toggles a link in the page; authorization is
	// out of scope here and must not be inferred from it.
	s.render(w, "index.html", struct {
		User      userInfoResponse
		ShowAdmin bool
	}{
		User:      s.userInfo(),
		ShowAdmin: r.URL.Query().Get("admin") != "",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"user_id": s.cfg.UserID,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.userInfo())
}

func (s *Server) handleAdmin(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "admin.html", struct {
		User userInfoResponse
	}{User: s.userInfo()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart request")
		return
	}

	files := r.MultipartForm.File["website"]
	if len(files) != 1 {
		writeError(w, http.StatusBadRequest, `exactly one file is required in field "website"`)
		return
	}

	file, err := files[0].Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}

	version, err := s.pub.Publish(data, files[0].Filename)
	if errors.Is(err, publisher.ErrBadUpload) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("publishing site: %v", err)
		writeError(w, http.StatusInternalServerError, "publishing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"version": version,
	})
}

// handleSite serves files from the currently published site. Resolution
// is done by hand because http.FileServer and http.ServeFile answer a
// direct request for index.html with a canonicalizing redirect instead
// of the file.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	rel := filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/site/"))
	if rel != "" && !filepath.IsLocal(rel) {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.pub.CurrentPath(), rel)
	if fi, err := os.Stat(full); err == nil && fi.IsDir() {
		full = filepath.Join(full, "index.html")
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func (s *Server) handleBilling(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = s.cfg.UserID
	}
	days := parseDays(r.URL.Query().Get("days"))

	report, err := s.store.Usage(userID, days)
	if err != nil {
		log.Printf("usage query for %s: %v", userID, err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	s.render(w, "billing.html", struct {
		User   userInfoResponse
		Report model.UsageReport
	}{User: s.userInfo(), Report: report})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	days := parseDays(r.URL.Query().Get("days"))

	report, err := s.store.Usage(userID, days)
	if err != nil {
		log.Printf("usage query for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, usageResponseFrom(report))
}

// parseDays interprets the optional days parameter, falling back to the
// 30-day default window on absent or unusable values.
func parseDays(raw string) int {
	if raw == "" {
		return 30
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 30
	}
	return days
}
