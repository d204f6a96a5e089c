package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers of the editing session API.
type ServerInterface interface {
	// Open a campaign editing session
	// (POST /sessions)
	OpenSession(ctx echo.Context) error
	// Discard a session without saving
	// (DELETE /sessions/{sessionId})
	DiscardSession(ctx echo.Context, sessionId string) error
	// Get the current state of a session
	// (GET /sessions/{sessionId})
	GetSession(ctx echo.Context, sessionId string) error
	// Update form fields, selections and the linkage
	// (PATCH /sessions/{sessionId}/form)
	PatchSessionForm(ctx echo.Context, sessionId string) error
	// Set the value of a displayed parameter
	// (PUT /sessions/{sessionId}/parameters/{key})
	SetSessionParameter(ctx echo.Context, sessionId string, key string) error
	// Add a scenario to the selection
	// (POST /sessions/{sessionId}/scenarios)
	AddSessionScenario(ctx echo.Context, sessionId string) error
	// Remove a scenario from the selection
	// (DELETE /sessions/{sessionId}/scenarios/{scenarioId})
	RemoveSessionScenario(ctx echo.Context, sessionId string, scenarioId string) error
	// Save the campaign
	// (POST /sessions/{sessionId}/submit)
	SubmitSession(ctx echo.Context, sessionId string) error
	// Drop a tag from the scenario filter
	// (DELETE /sessions/{sessionId}/tags/{tag})
	DeselectSessionTag(ctx echo.Context, sessionId string, tag string) error
	// Add a tag to the scenario filter
	// (POST /sessions/{sessionId}/tags/{tag})
	SelectSessionTag(ctx echo.Context, sessionId string, tag string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPathParam(ctx echo.Context, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

// OpenSession converts echo context to params.
func (w *ServerInterfaceWrapper) OpenSession(ctx echo.Context) error {
	return w.Handler.OpenSession(ctx)
}

// DiscardSession converts echo context to params.
func (w *ServerInterfaceWrapper) DiscardSession(ctx echo.Context) error {
	var sessionId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	return w.Handler.DiscardSession(ctx, sessionId)
}

// GetSession converts echo context to params.
func (w *ServerInterfaceWrapper) GetSession(ctx echo.Context) error {
	var sessionId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	return w.Handler.GetSession(ctx, sessionId)
}

// PatchSessionForm converts echo context to params.
func (w *ServerInterfaceWrapper) PatchSessionForm(ctx echo.Context) error {
	var sessionId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	return w.Handler.PatchSessionForm(ctx, sessionId)
}

// SetSessionParameter converts echo context to params.
func (w *ServerInterfaceWrapper) SetSessionParameter(ctx echo.Context) error {
	var sessionId, key string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	if err := bindPathParam(ctx, "key", &key); err != nil {
		return err
	}
	return w.Handler.SetSessionParameter(ctx, sessionId, key)
}

// AddSessionScenario converts echo context to params.
func (w *ServerInterfaceWrapper) AddSessionScenario(ctx echo.Context) error {
	var sessionId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	return w.Handler.AddSessionScenario(ctx, sessionId)
}

// RemoveSessionScenario converts echo context to params.
func (w *ServerInterfaceWrapper) RemoveSessionScenario(ctx echo.Context) error {
	var sessionId, scenarioId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	if err := bindPathParam(ctx, "scenarioId", &scenarioId); err != nil {
		return err
	}
	return w.Handler.RemoveSessionScenario(ctx, sessionId, scenarioId)
}

// SubmitSession converts echo context to params.
func (w *ServerInterfaceWrapper) SubmitSession(ctx echo.Context) error {
	var sessionId string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	return w.Handler.SubmitSession(ctx, sessionId)
}

// DeselectSessionTag converts echo context to params.
func (w *ServerInterfaceWrapper) DeselectSessionTag(ctx echo.Context) error {
	var sessionId, tag string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	if err := bindPathParam(ctx, "tag", &tag); err != nil {
		return err
	}
	return w.Handler.DeselectSessionTag(ctx, sessionId, tag)
}

// SelectSessionTag converts echo context to params.
func (w *ServerInterfaceWrapper) SelectSessionTag(ctx echo.Context) error {
	var sessionId, tag string
	if err := bindPathParam(ctx, "sessionId", &sessionId); err != nil {
		return err
	}
	if err := bindPathParam(ctx, "tag", &tag); err != nil {
		return err
	}
	return w.Handler.SelectSessionTag(ctx, sessionId, tag)
}

// EchoRouter is implemented by both echo.Echo and echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the routes under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST(baseURL+"/sessions", wrapper.OpenSession)
	router.DELETE(baseURL+"/sessions/:sessionId", wrapper.DiscardSession)
	router.GET(baseURL+"/sessions/:sessionId", wrapper.GetSession)
	router.PATCH(baseURL+"/sessions/:sessionId/form", wrapper.PatchSessionForm)
	router.PUT(baseURL+"/sessions/:sessionId/parameters/:key", wrapper.SetSessionParameter)
	router.POST(baseURL+"/sessions/:sessionId/scenarios", wrapper.AddSessionScenario)
	router.DELETE(baseURL+"/sessions/:sessionId/scenarios/:scenarioId", wrapper.RemoveSessionScenario)
	router.POST(baseURL+"/sessions/:sessionId/submit", wrapper.SubmitSession)
	router.DELETE(baseURL+"/sessions/:sessionId/tags/:tag", wrapper.DeselectSessionTag)
	router.POST(baseURL+"/sessions/:sessionId/tags/:tag", wrapper.SelectSessionTag)
}
