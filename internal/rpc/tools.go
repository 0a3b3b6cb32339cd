package rpc

import (
	"encoding/json"

	"github.com/Sozary/tidsreg/internal/utils"
	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolCallParams struct {
	Name      string                     `json:"name"`
	Arguments map[string]json.RawMessage `json:"arguments"`
}

func textResult(text string, isError bool) toolResult {
	return toolResult{
		Content: []toolContent{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// errorText renders err the way the legacy clients expect it: a JSON object
// with the message and an HTTP-ish status, 0 for local failures.
func errorText(err error) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"error":  err.Error(),
		"status": tidsreg.StatusOf(err),
	})
	return string(payload)
}

func (s *Server) callTool(rawParams json.RawMessage) toolResult {
	var params toolCallParams
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return textResult(`{"error": "invalid tools/call params"}`, true)
		}
	}

	utils.Log.WithField("tool", params.Name).Info("calling tool")

	args := stringArgs(params.Arguments)
	required := func(names ...string) (string, bool) {
		for _, name := range names {
			if args[name] == "" {
				payload, _ := json.Marshal(map[string]string{
					"error": "Missing required argument: " + name,
				})
				return string(payload), false
			}
		}
		return "", true
	}

	var (
		raw json.RawMessage
		err error
	)

	switch params.Name {
	case "login":
		if msg, ok := required("username", "password"); !ok {
			return textResult(msg, true)
		}
		if err := s.client.Login(args["username"], args["password"]); err != nil {
			return textResult(errorText(err), false)
		}
		return textResult(`{"ok": true}`, false)

	case "list_customers":
		raw, err = s.client.Customers()

	case "list_projects":
		if msg, ok := required("customerId", "date"); !ok {
			return textResult(msg, true)
		}
		raw, err = s.client.Projects(args["customerId"], args["date"])

	case "list_phases":
		if msg, ok := required("projectId", "date"); !ok {
			return textResult(msg, true)
		}
		raw, err = s.client.Phases(args["projectId"], args["date"])

	case "list_activities":
		if msg, ok := required("phaseId", "date"); !ok {
			return textResult(msg, true)
		}
		raw, err = s.client.Activities(args["phaseId"], args["date"])

	case "list_kinds":
		if msg, ok := required("projectName", "activityName"); !ok {
			return textResult(msg, true)
		}
		raw, err = s.client.Kinds(args["projectName"], args["activityName"])

	case "get_registered_hours":
		if msg, ok := required("date"); !ok {
			return textResult(msg, true)
		}
		result, err := s.client.RegisteredHours(args["date"])
		if err != nil {
			return textResult(errorText(err), false)
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return textResult(errorText(err), true)
		}
		return textResult(string(payload), false)

	default:
		payload, _ := json.Marshal(map[string]string{
			"error": "Unknown tool: " + params.Name,
		})
		return textResult(string(payload), true)
	}

	if err != nil {
		return textResult(errorText(err), false)
	}
	return textResult(string(raw), false)
}

// stringArgs flattens tool arguments to strings. Tool schemas only declare
// string properties, but clients occasionally send numbers anyway.
func stringArgs(raw map[string]json.RawMessage) map[string]string {
	args := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			args[key] = s
			continue
		}
		args[key] = string(value)
	}
	return args
}

func toolDefinitions() []map[string]interface{} {
	stringProp := func(description string) map[string]string {
		return map[string]string{"type": "string", "description": description}
	}
	schema := func(required []string, props map[string]interface{}) map[string]interface{} {
		s := map[string]interface{}{
			"type":       "object",
			"properties": props,
		}
		if len(required) > 0 {
			s["required"] = required
		}
		return s
	}

	return []map[string]interface{}{
		{
			"name":        "login",
			"description": "Authenticate with Tidsreg using username and password. Must be called before using other tools.",
			"inputSchema": schema([]string{"username", "password"}, map[string]interface{}{
				"username": stringProp("Tidsreg username"),
				"password": stringProp("Tidsreg password"),
			}),
		},
		{
			"name":        "list_customers",
			"description": "Retrieve the list of all available customers from Tidsreg",
			"inputSchema": schema(nil, map[string]interface{}{}),
		},
		{
			"name":        "list_projects",
			"description": "Retrieve the list of projects for a specific customer",
			"inputSchema": schema([]string{"customerId", "date"}, map[string]interface{}{
				"customerId": stringProp("The customer ID"),
				"date":       stringProp("Date in format YYYY-MM-DD"),
			}),
		},
		{
			"name":        "list_phases",
			"description": "Retrieve the list of phases for a specific project",
			"inputSchema": schema([]string{"projectId", "date"}, map[string]interface{}{
				"projectId": stringProp("The project ID"),
				"date":      stringProp("Date in format YYYY-MM-DD"),
			}),
		},
		{
			"name":        "list_activities",
			"description": "Retrieve the list of activities for a specific phase",
			"inputSchema": schema([]string{"phaseId", "date"}, map[string]interface{}{
				"phaseId": stringProp("The phase ID"),
				"date":    stringProp("Date in format YYYY-MM-DD"),
			}),
		},
		{
			"name":        "list_kinds",
			"description": "Retrieve the list of kinds for a specific project and activity combination",
			"inputSchema": schema([]string{"projectName", "activityName"}, map[string]interface{}{
				"projectName":  stringProp("The project name"),
				"activityName": stringProp("The activity name"),
			}),
		},
		{
			"name":        "get_registered_hours",
			"description": "Retrieve the registered work hours for a specific date, including per-activity entries, totals and warnings",
			"inputSchema": schema([]string{"date"}, map[string]interface{}{
				"date": stringProp("Date in format YYYY-MM-DD"),
			}),
		},
	}
}
