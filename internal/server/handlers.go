package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sozary/tidsreg/internal/utils"
	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.WithError(err).Error("failed to encode response")
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  message,
		"status": http.StatusBadRequest,
	})
}

// writeError maps a client error to the {error, status} shape. Upstream HTTP
// failures keep their status code; local failures become a 500 with status 0
// in the body.
func writeError(w http.ResponseWriter, err error) {
	status := tidsreg.StatusOf(err)
	httpStatus := status
	if httpStatus == 0 {
		httpStatus = http.StatusInternalServerError
	}
	if errors.Is(err, tidsreg.ErrInvalidDateFormat) {
		status, httpStatus = http.StatusBadRequest, http.StatusBadRequest
	}
	writeJSON(w, httpStatus, map[string]interface{}{
		"error":  err.Error(),
		"status": status,
	})
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"authenticated": s.Client.IsAuthenticated(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeBadRequest(w, "Missing username or password")
		return
	}

	if err := s.Client.Login(req.Username, req.Password); err != nil {
		status := tidsreg.StatusOf(err)
		if status == 0 {
			status = http.StatusUnauthorized
		}
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":  err.Error(),
			"status": status,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	raw, err := s.Client.Customers()
	writeRaw(w, raw, err)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID, date := q.Get("customerId"), q.Get("date")
	if customerID == "" || date == "" {
		writeBadRequest(w, "Missing customerId or date parameter")
		return
	}
	raw, err := s.Client.Projects(customerID, date)
	writeRaw(w, raw, err)
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID, date := q.Get("projectId"), q.Get("date")
	if projectID == "" || date == "" {
		writeBadRequest(w, "Missing projectId or date parameter")
		return
	}
	raw, err := s.Client.Phases(projectID, date)
	writeRaw(w, raw, err)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	phaseID, date := q.Get("phaseId"), q.Get("date")
	if phaseID == "" || date == "" {
		writeBadRequest(w, "Missing phaseId or date parameter")
		return
	}
	raw, err := s.Client.Activities(phaseID, date)
	writeRaw(w, raw, err)
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectName, activityName := q.Get("projectName"), q.Get("activityName")
	if projectName == "" || activityName == "" {
		writeBadRequest(w, "Missing projectName or activityName parameter")
		return
	}
	raw, err := s.Client.Kinds(projectName, activityName)
	writeRaw(w, raw, err)
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeBadRequest(w, "Missing date parameter")
		return
	}

	result, err := s.Client.RegisteredHours(date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type toolInfo struct {
	Name        string            `json:"name"`
	Method      string            `json:"method"`
	Endpoint    string            `json:"endpoint"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params,omitempty"`
	Body        map[string]string `json:"body,omitempty"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools := []toolInfo{
		{
			Name: "login", Method: "POST", Endpoint: "/api/login",
			Description: "Authenticate with Tidsreg",
			Body:        map[string]string{"username": "string", "password": "string"},
		},
		{
			Name: "list_customers", Method: "GET", Endpoint: "/api/customers",
			Description: "List all available customers",
		},
		{
			Name: "list_projects", Method: "GET", Endpoint: "/api/projects",
			Description: "List projects for a customer",
			Params:      map[string]string{"customerId": "string", "date": "YYYY-MM-DD"},
		},
		{
			Name: "list_phases", Method: "GET", Endpoint: "/api/phases",
			Description: "List phases for a project",
			Params:      map[string]string{"projectId": "string", "date": "YYYY-MM-DD"},
		},
		{
			Name: "list_activities", Method: "GET", Endpoint: "/api/activities",
			Description: "List activities for a phase",
			Params:      map[string]string{"phaseId": "string", "date": "YYYY-MM-DD"},
		},
		{
			Name: "list_kinds", Method: "GET", Endpoint: "/api/kinds",
			Description: "List kinds for a project and activity",
			Params:      map[string]string{"projectName": "string", "activityName": "string"},
		},
		{
			Name: "get_registered_hours", Method: "GET", Endpoint: "/api/hours",
			Description: "Get registered hours for a date",
			Params:      map[string]string{"date": "YYYY-MM-DD"},
		},
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
}
