package server

import (
	"net/http"

	"github.com/ontrack-io/ontrack/internal/analytics"
)

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	days, err := analytics.ParseWindow(r.URL.Query().Get("days"), analytics.DefaultSummaryDays)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	summary, err := a.analytics.Summary(r.Context(), userID(r), days)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *api) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := a.analytics.Streak(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (a *api) handleCFD(w http.ResponseWriter, r *http.Request) {
	days, err := analytics.ParseWindow(r.URL.Query().Get("days"), analytics.DefaultCFDDays)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	buckets, err := a.analytics.CFD(r.Context(), userID(r), days)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (a *api) handleCompletedTasks(w http.ResponseWriter, r *http.Request) {
	days, err := analytics.ParseWindow(r.URL.Query().Get("days"), analytics.DefaultCompletedDays)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	tasks, err := a.analytics.CompletedTasks(r.Context(), userID(r), days)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
