package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/internal/services"
)

type Server struct {
	mcpServer *server.MCPServer
	sessions  *services.SessionService
}

func NewServer(sessions *services.SessionService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Campaign Editor",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		sessions: sessions,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"open_campaign_editor",
			mcp.WithDescription("Open an editing session on an existing campaign, or on a new one when campaign_id is omitted"),
			mcp.WithNumber("campaign_id", mcp.Description("The id of the campaign to edit")),
		),
		s.handleOpen,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"update_campaign_form",
			mcp.WithDescription("Set the form fields of the campaign being edited, or the text filter of the scenario list"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("title", mcp.Description("Campaign title")),
			mcp.WithString("description", mcp.Description("Campaign description")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithString("schedule_time", mcp.Description("Daily start time as HH:MM, empty for none")),
			mcp.WithString("environment", mcp.Description("Target environment")),
			mcp.WithString("dataset_id", mcp.Description("Dataset used at execution")),
			mcp.WithBoolean("parallel_run", mcp.Description("Run scenarios in parallel")),
			mcp.WithBoolean("retry_auto", mcp.Description("Retry failed scenarios")),
			mcp.WithString("scenario_filter", mcp.Description("Only list scenarios whose title or id contains this text")),
		),
		s.handleUpdateForm,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"add_scenario",
			mcp.WithDescription("Add a scenario to the campaign"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("scenario_id", mcp.Required(), mcp.Description("The scenario to add")),
		),
		s.handleAddScenario,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"remove_scenario",
			mcp.WithDescription("Remove a scenario from the campaign"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("scenario_id", mcp.Required(), mcp.Description("The scenario to remove")),
		),
		s.handleRemoveScenario,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_parameter",
			mcp.WithDescription("Set the value of a campaign execution parameter"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("key", mcp.Required(), mcp.Description("The parameter name")),
			mcp.WithString("value", mcp.Required(), mcp.Description("The parameter value")),
		),
		s.handleSetParameter,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_linkage",
			mcp.WithDescription("Link the campaign to an issue-tracker test execution, or toggle the linked-only scenario filter"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("linkage_id", mcp.Description("The test execution key, empty to unlink")),
			mcp.WithBoolean("only_linked", mcp.Description("Only list scenarios linked to the test execution")),
		),
		s.handleSetLinkage,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"select_tag",
			mcp.WithDescription("Only list scenarios carrying the tag"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("tag", mcp.Required(), mcp.Description("The scenario tag")),
		),
		s.handleSelectTag,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"deselect_tag",
			mcp.WithDescription("Stop filtering the scenario list on the tag"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
			mcp.WithString("tag", mcp.Required(), mcp.Description("The scenario tag")),
		),
		s.handleDeselectTag,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_campaign",
			mcp.WithDescription("Save the campaign and close the session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
		),
		s.handleSubmit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"discard_campaign_editor",
			mcp.WithDescription("Close the session without saving"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The editing session")),
		),
		s.handleDiscard,
	)
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("Invalid arguments type")
	}
	return args, nil
}

func requiredString(args map[string]interface{}, name string) (string, *mcp.CallToolResult) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", mcp.NewToolResultError("Missing required parameter: " + name)
	}
	return v, nil
}

func optionalString(args map[string]interface{}, name string) *string {
	if v, ok := args[name].(string); ok {
		return &v
	}
	return nil
}

func optionalBool(args map[string]interface{}, name string) *bool {
	if v, ok := args[name].(bool); ok {
		return &v
	}
	return nil
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonBytes))
}

// session resolves the session_id argument.
func (s *Server) session(args map[string]interface{}) (*editor.Session, *mcp.CallToolResult) {
	id, res := requiredString(args, "session_id")
	if res != nil {
		return nil, res
	}
	session, err := s.sessions.Session(id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return session, nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}

	var campaignID *int64
	if raw, ok := args["campaign_id"]; ok && raw != nil {
		n, ok := raw.(float64)
		if !ok || n != float64(int64(n)) {
			return mcp.NewToolResultError("campaign_id must be an integer"), nil
		}
		id := int64(n)
		campaignID = &id
	}

	id, view, err := s.sessions.Open(ctx, campaignID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open editor: %s", editor.ErrorMessage(err))), nil
	}
	return jsonResult(map[string]any{"sessionId": id, "view": view}), nil
}

func (s *Server) handleUpdateForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}

	patch := editor.FormPatch{
		Title:          optionalString(args, "title"),
		Description:    optionalString(args, "description"),
		Tags:           optionalString(args, "tags"),
		ScheduleTime:   optionalString(args, "schedule_time"),
		Environment:    optionalString(args, "environment"),
		DatasetID:      optionalString(args, "dataset_id"),
		ParallelRun:    optionalBool(args, "parallel_run"),
		RetryAuto:      optionalBool(args, "retry_auto"),
		ScenarioFilter: optionalString(args, "scenario_filter"),
	}
	if err := session.ApplyForm(ctx, patch); err != nil {
		return mcp.NewToolResultError(editor.ErrorMessage(err)), nil
	}
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleAddScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}
	scenarioID, res := requiredString(args, "scenario_id")
	if res != nil {
		return res, nil
	}

	if err := session.AddScenario(ctx, scenarioID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add scenario: %v", err)), nil
	}
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleRemoveScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}
	scenarioID, res := requiredString(args, "scenario_id")
	if res != nil {
		return res, nil
	}

	if err := session.RemoveScenario(ctx, scenarioID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to remove scenario: %v", err)), nil
	}
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleSetParameter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}
	key, res := requiredString(args, "key")
	if res != nil {
		return res, nil
	}
	value, ok := args["value"].(string)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: value"), nil
	}

	if err := session.SetParameter(key, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleSetLinkage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}
	patch := editor.FormPatch{LinkageID: optionalString(args, "linkage_id"), OnlyLinked: optionalBool(args, "only_linked")}
	if patch.LinkageID == nil && patch.OnlyLinked == nil {
		return mcp.NewToolResultError("Missing parameter: linkage_id or only_linked"), nil
	}
	if err := session.ApplyForm(ctx, patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load linked scenarios: %s", editor.ErrorMessage(err))), nil
	}
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleSelectTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withTag(request, (*editor.Session).SelectTag)
}

func (s *Server) handleDeselectTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withTag(request, (*editor.Session).DeselectTag)
}

// withTag applies a tag selection change and returns the new snapshot.
func (s *Server) withTag(request mcp.CallToolRequest, apply func(*editor.Session, string)) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	session, res := s.session(args)
	if res != nil {
		return res, nil
	}
	tag, res := requiredString(args, "tag")
	if res != nil {
		return res, nil
	}

	apply(session, tag)
	return jsonResult(session.Snapshot()), nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	id, res := requiredString(args, "session_id")
	if res != nil {
		return res, nil
	}

	outcome, err := s.sessions.Submit(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save campaign: %v", err)), nil
	}
	result := map[string]any{"campaign": outcome.Campaign, "redirect": outcome.Redirect}
	if outcome.LinkageErr != nil {
		result["linkageError"] = editor.ErrorMessage(outcome.LinkageErr)
	}
	return jsonResult(result), nil
}

func (s *Server) handleDiscard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, res := arguments(request)
	if res != nil {
		return res, nil
	}
	id, res := requiredString(args, "session_id")
	if res != nil {
		return res, nil
	}

	redirect, err := s.sessions.Discard(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{"redirect": redirect}), nil
}

// MountHTTPHandlers serves the MCP server over streamable HTTP on /mcp and
// over SSE on /mcp/sse and /mcp/message.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))
	streamServer := server.NewStreamableHTTPServer(mcpServer)

	mux.Handle("/mcp", streamServer)
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
