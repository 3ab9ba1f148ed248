package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ontrack-io/ontrack/internal/daemon/task"
	"github.com/ontrack-io/ontrack/internal/models"
)

const taskNotFound = "Task not found."

func (a *api) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.tasks.ListTasks(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Name              string          `json:"name"`
	DueDate           string          `json:"dueDate"`
	Priority          string          `json:"priority"`
	ActionableItems   []string        `json:"actionableItems"`
	CompletionPercent json.RawMessage `json:"completionPercent"`
}

func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	percent := 0
	if len(req.CompletionPercent) > 0 && string(req.CompletionPercent) != "null" {
		p, err := parsePercent(req.CompletionPercent)
		if err != nil {
			writeError(w, r, err, taskNotFound)
			return
		}
		percent = p
	}

	t, err := a.tasks.CreateTask(r.Context(), userID(r), task.CreateOptions{
		Name:              req.Name,
		DueDate:           req.DueDate,
		Priority:          req.Priority,
		ActionableItems:   req.ActionableItems,
		CompletionPercent: percent,
	})
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *api) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	opts, err := decodeUpdate(chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	t, err := a.tasks.UpdateTask(r.Context(), userID(r), opts)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.tasks.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeUpdate turns a PATCH body into UpdateOptions. Only keys present in
// the body are set; a JSON null counts as an empty value.
func decodeUpdate(taskID string, fields map[string]json.RawMessage) (task.UpdateOptions, error) {
	opts := task.UpdateOptions{TaskID: taskID}

	if raw, ok := fields["name"]; ok {
		s, err := decodeString(raw, "name", "Task name must be a string.")
		if err != nil {
			return opts, err
		}
		opts.Name = &s
	}
	if raw, ok := fields["dueDate"]; ok {
		s, err := decodeString(raw, "dueDate", "Invalid due date format. Please use YYYY-MM-DD.")
		if err != nil {
			return opts, err
		}
		opts.DueDate = &s
	}
	if raw, ok := fields["priority"]; ok {
		s, err := decodeString(raw, "priority", "Priority must be P1, P2, or P3.")
		if err != nil {
			return opts, err
		}
		opts.Priority = &s
	}
	if raw, ok := fields["completed"]; ok {
		var b bool
		if isNull(raw) || json.Unmarshal(raw, &b) != nil {
			return opts, models.Invalid("completed", "Completed must be a boolean value.")
		}
		opts.Completed = &b
	}
	if raw, ok := fields["actionableItems"]; ok {
		items := []string{}
		if !isNull(raw) && json.Unmarshal(raw, &items) != nil {
			return opts, models.Invalid("actionableItems", "Actionable items must be a list of strings.")
		}
		opts.ActionableItems = &items
	}
	if raw, ok := fields["completionPercent"]; ok {
		p, err := parsePercent(raw)
		if err != nil {
			return opts, err
		}
		opts.CompletionPercent = &p
	}
	return opts, nil
}

func decodeString(raw json.RawMessage, field, typeMessage string) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", models.Invalid(field, typeMessage)
	}
	return s, nil
}

// parsePercent accepts an integral JSON number or a string holding an integer.
func parsePercent(raw json.RawMessage) (int, error) {
	invalid := models.Invalid("completionPercent", "Completion percent must be an integer.")

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, invalid
	}

	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clampInt(i), nil
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, invalid
		}
		return clampInt(int64(f)), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, invalid
		}
		return i, nil
	default:
		return 0, invalid
	}
}

// clampInt keeps huge values out of int overflow; they still fail the
// 0..100 range check.
func clampInt(i int64) int {
	if i > math.MaxInt32 {
		return math.MaxInt32
	}
	if i < math.MinInt32 {
		return math.MinInt32
	}
	return int(i)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
