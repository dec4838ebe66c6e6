package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/filter"
	"github.com/hpungsan/internmap/internal/ops"
	"github.com/hpungsan/internmap/internal/profile"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	session *ops.Session
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(session *ops.Session) *Handlers {
	return &Handlers{session: session}
}

// Request types for each tool

// ListRequest represents the arguments for profile_list.
type ListRequest struct {
	LocationType string   `json:"location_type,omitempty"`
	TravelMode   string   `json:"travel_mode,omitempty"`
	MaxMinutes   *int     `json:"max_minutes,omitempty"`
	Fields       []string `json:"fields,omitempty"`
}

// GetRequest represents the arguments for profile_get.
type GetRequest struct {
	ID string `json:"id"`
}

// SubmitRequest represents the arguments for profile_submit.
type SubmitRequest struct {
	AccessCode string          `json:"access_code,omitempty"`
	Profile    profile.Profile `json:"profile"`
}

// DeleteRequest represents the arguments for profile_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ImportRequest represents the arguments for profile_import.
type ImportRequest struct {
	AccessCode string `json:"access_code,omitempty"`
	CSV        string `json:"csv,omitempty"`
	Path       string `json:"path,omitempty"`
}

// ListResponse is the profile_list result. Profiles are reduced to summaries.
type ListResponse struct {
	Map    []ops.Summary  `json:"map"`
	List   []ops.Summary  `json:"list"`
	Filter filter.Options `json:"filter"`
	Total  int            `json:"total"`
}

// Handler implementations

// HandleList handles the profile_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var maxMinutes string
	if input.MaxMinutes != nil {
		maxMinutes = strconv.Itoa(*input.MaxMinutes)
	}
	result, err := h.session.List(ctx, ops.ListInput{
		LocationType: input.LocationType,
		TravelMode:   input.TravelMode,
		MaxMinutes:   maxMinutes,
		Fields:       input.Fields,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ListResponse{
		Map:    ops.Summaries(result.MapEligible),
		List:   ops.Summaries(result.ListEligible),
		Filter: result.Filter,
		Total:  result.Total,
	})
}

// HandleGet handles the profile_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Get(ctx, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSubmit handles the profile_submit tool call.
func (h *Handlers) HandleSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SubmitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Submit(ctx, ops.SubmitInput{
		AccessCode: input.AccessCode,
		Profile:    input.Profile,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the profile_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Delete(ctx, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the profile_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	hasCSV := strings.TrimSpace(input.CSV) != ""
	hasPath := strings.TrimSpace(input.Path) != ""
	if hasCSV == hasPath {
		return errorResult(errors.NewInvalidRequest("provide exactly one of csv or path")), nil
	}

	in := ops.ImportInput{AccessCode: input.AccessCode, Path: input.Path}
	if hasCSV {
		in.Reader = strings.NewReader(input.CSV)
	}
	result, err := h.session.Import(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMigrate handles the profile_migrate tool call.
func (h *Handlers) HandleMigrate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.session.Boot(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg := appErr.Message
		if err != error(appErr) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": msg,
			"status":  appErr.Status,
		}
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
