package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"campaign-editor/backend/internal/auth"
	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/internal/services"
	"campaign-editor/backend/pkg/models"
)

// OpenSessionRequest is the body of POST /sessions. A nil CampaignID opens
// the editor on a new campaign.
type OpenSessionRequest struct {
	CampaignID *int64 `json:"campaignId,omitempty"`
}

// OpenSessionResponse identifies the new session.
type OpenSessionResponse struct {
	SessionID string      `json:"sessionId"`
	View      editor.View `json:"view"`
}

// AddScenarioRequest is the body of POST /sessions/{sessionId}/scenarios.
type AddScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// SetParameterRequest is the body of PUT /sessions/{sessionId}/parameters/{key}.
type SetParameterRequest struct {
	Value string `json:"value"`
}

// SubmitResponse reports a saved campaign and where to navigate next.
type SubmitResponse struct {
	Campaign     *models.Campaign `json:"campaign"`
	Redirect     string           `json:"redirect"`
	LinkageError string           `json:"linkageError,omitempty"`
}

// DiscardResponse tells where to navigate after leaving the editor.
type DiscardResponse struct {
	Redirect string `json:"redirect"`
}

var _ ServerInterface = (*Handler)(nil)

// OpenSession starts an editing session
// (POST /api/v1/sessions)
func (h *Handler) OpenSession(c echo.Context) error {
	var req OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.problem(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
	}

	id, view, err := h.sessions.Open(c.Request().Context(), req.CampaignID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, OpenSessionResponse{SessionID: id, View: view})
}

// GetSession returns the session state
// (GET /api/v1/sessions/{sessionId})
func (h *Handler) GetSession(c echo.Context, sessionId string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// DiscardSession leaves the editor without saving
// (DELETE /api/v1/sessions/{sessionId})
func (h *Handler) DiscardSession(c echo.Context, sessionId string) error {
	redirect, err := h.sessions.Discard(c.Request().Context(), sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DiscardResponse{Redirect: redirect})
}

// PatchSessionForm applies a partial update
// (PATCH /api/v1/sessions/{sessionId}/form)
func (h *Handler) PatchSessionForm(c echo.Context, sessionId string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	var patch editor.FormPatch
	if err := c.Bind(&patch); err != nil {
		return h.problem(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
	}
	if err := session.ApplyForm(c.Request().Context(), patch); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// AddSessionScenario selects a catalog scenario
// (POST /api/v1/sessions/{sessionId}/scenarios)
func (h *Handler) AddSessionScenario(c echo.Context, sessionId string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	var req AddScenarioRequest
	if err := c.Bind(&req); err != nil {
		return h.problem(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
	}
	if req.ScenarioID == "" {
		return h.problem(c, http.StatusBadRequest, "Invalid request body", "scenarioId is required", nil)
	}
	if err := session.AddScenario(c.Request().Context(), req.ScenarioID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// RemoveSessionScenario deselects a scenario
// (DELETE /api/v1/sessions/{sessionId}/scenarios/{scenarioId})
func (h *Handler) RemoveSessionScenario(c echo.Context, sessionId string, scenarioId string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	if err := session.RemoveScenario(c.Request().Context(), scenarioId); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// SetSessionParameter edits a displayed parameter
// (PUT /api/v1/sessions/{sessionId}/parameters/{key})
func (h *Handler) SetSessionParameter(c echo.Context, sessionId string, key string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	var req SetParameterRequest
	if err := c.Bind(&req); err != nil {
		return h.problem(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
	}
	if err := session.SetParameter(key, req.Value); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// SelectSessionTag narrows the scenario list
// (POST /api/v1/sessions/{sessionId}/tags/{tag})
func (h *Handler) SelectSessionTag(c echo.Context, sessionId string, tag string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	session.SelectTag(tag)
	return c.JSON(http.StatusOK, session.Snapshot())
}

// DeselectSessionTag widens the scenario list
// (DELETE /api/v1/sessions/{sessionId}/tags/{tag})
func (h *Handler) DeselectSessionTag(c echo.Context, sessionId string, tag string) error {
	session, err := h.sessions.Session(sessionId)
	if err != nil {
		return h.fail(c, err)
	}
	session.DeselectTag(tag)
	return c.JSON(http.StatusOK, session.Snapshot())
}

// SubmitSession saves the campaign
// (POST /api/v1/sessions/{sessionId}/submit)
func (h *Handler) SubmitSession(c echo.Context, sessionId string) error {
	ctx := c.Request().Context()
	outcome, err := h.sessions.Submit(ctx, sessionId)
	if err != nil {
		return h.fail(c, err)
	}

	resp := SubmitResponse{Campaign: outcome.Campaign, Redirect: outcome.Redirect}
	if outcome.LinkageErr != nil {
		resp.LinkageError = editor.ErrorMessage(outcome.LinkageErr)
	}
	fields := []any{"session_id", sessionId, "redirect", outcome.Redirect}
	if user, ok := auth.UserFromContext(ctx); ok {
		fields = append(fields, "user", user.Email)
	}
	h.logger.Info("campaign saved", fields...)
	return c.JSON(http.StatusOK, resp)
}

// fail maps a service error to a problem response.
func (h *Handler) fail(c echo.Context, err error) error {
	var (
		verr *editor.ValidationError
		serr *editor.SaveError
		aerr *services.APIError
	)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return h.problem(c, http.StatusNotFound, "Session not found", err.Error(), nil)
	case errors.Is(err, editor.ErrCampaignNotFound):
		return h.problem(c, http.StatusNotFound, "Campaign not found", err.Error(), nil)
	case errors.As(err, &verr):
		return h.problem(c, http.StatusUnprocessableEntity, "Invalid campaign", err.Error(), verr.Fields)
	case errors.Is(err, editor.ErrUnknownScenario):
		return h.problem(c, http.StatusBadRequest, "Unknown scenario", err.Error(), nil)
	case errors.Is(err, editor.ErrUnknownParameter):
		return h.problem(c, http.StatusNotFound, "Unknown parameter", err.Error(), nil)
	case errors.Is(err, editor.ErrSubmitInProgress), errors.Is(err, editor.ErrParametersPending),
		errors.Is(err, editor.ErrCatalogNotLoaded):
		return h.problem(c, http.StatusConflict, "Conflict", err.Error(), nil)
	case errors.As(err, &serr):
		return h.problem(c, http.StatusBadGateway, "Campaign not saved", serr.Message, nil)
	case errors.As(err, &aerr):
		return h.problem(c, http.StatusBadGateway, "Chutney request failed", editor.ErrorMessage(err), nil)
	}
	h.logger.Error("request failed", "path", c.Path(), "error", err)
	return h.problem(c, http.StatusInternalServerError, "Internal error", err.Error(), nil)
}

func (h *Handler) problem(c echo.Context, status int, title, detail string, fields map[string]string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}
