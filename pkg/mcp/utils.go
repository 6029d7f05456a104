package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errArgument marks a missing or malformed tool argument.
var errArgument = errors.New("invalid argument")

func stringArg(request mcp.CallToolRequest, name string) string {
	s, _ := request.Params.Arguments[name].(string)
	return s
}

func requiredString(request mcp.CallToolRequest, name string) (string, error) {
	s, ok := request.Params.Arguments[name].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: '%s' parameter is required and must be a non-empty string", errArgument, name)
	}
	return s, nil
}

// intArg reads a JSON number argument. Absent means def.
func intArg(request mcp.CallToolRequest, name string, def int) (int, error) {
	v, ok := request.Params.Arguments[name]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: '%s' must be a whole number", errArgument, name)
	}
	return int(f), nil
}

// jsonResult marshals v as the text of a successful result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns an error into a tool error, prefixed with its kind so a
// caller can tell a bad request from a missing object or a storage failure.
func errorResult(action string, err error) *mcp.CallToolResult {
	kind := "error"
	switch {
	case errors.Is(err, errArgument), errors.Is(err, gallery.ErrInvalidInput):
		kind = "invalid_input"
	case errors.Is(err, gallery.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, gallery.ErrDuplicateName), errors.Is(err, gallery.ErrDuplicateTag):
		kind = "duplicate"
	case errors.Is(err, gallery.ErrTagCapacityExceeded):
		kind = "tag_capacity_exceeded"
	case errors.Is(err, gallery.ErrPersistence):
		kind = "persistence_failure"
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: failed to %s: %v", kind, action, err))
}

// session logs in as the request's user, optionally opens album, runs fn and
// logs out. The logout checkpoint runs even when fn fails, since fn may
// already have edited photos.
func (t *Tools) session(ctx context.Context, request mcp.CallToolRequest, album string, fn func(*service.Session) (interface{}, error)) (interface{}, error) {
	username, err := requiredString(request, "user")
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lib.Login(ctx, username)
	if err != nil {
		return nil, err
	}
	if album != "" {
		if _, err := s.OpenAlbum(ctx, album); err != nil {
			return nil, err
		}
	}
	out, err := fn(s)
	if logoutErr := s.Logout(ctx); logoutErr != nil {
		t.log.Error("logout failed", zap.String("user", username), zap.Error(logoutErr))
		if err == nil {
			err = logoutErr
		}
	}
	return out, err
}

// handle adapts fn into an mcp-go tool handler.
func (t *Tools) handle(action string, fn func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := fn(ctx, request)
		if err != nil {
			t.log.Debug("tool failed", zap.String("tool", action), zap.Error(err))
			return errorResult(action, err), nil
		}
		return jsonResult(out)
	}
}

type userView struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Albums   int    `json:"albums"`
}

func usersView(users []*gallery.User) []userView {
	out := make([]userView, len(users))
	for i, u := range users {
		out[i] = userView{Username: u.Username(), Admin: u.IsAdmin(), Albums: len(u.Albums())}
	}
	return out
}

func albumSummaries(albums []*gallery.Album) []gallery.Summary {
	out := make([]gallery.Summary, len(albums))
	for i, a := range albums {
		out[i] = a.Summary()
	}
	return out
}

type tagTypeView struct {
	Type         string `json:"type"`
	Multiplicity int    `json:"multiplicity"`
	Unbounded    bool   `json:"unbounded,omitempty"`
}

func tagTypesView(tt gallery.TagTypes) []tagTypeView {
	names := tt.Names()
	out := make([]tagTypeView, len(names))
	for i, name := range names {
		n, _ := tt.Limit(name)
		out[i] = tagTypeView{Type: name, Multiplicity: n, Unbounded: n == gallery.Unbounded}
	}
	return out
}

type searchView struct {
	Query   string                `json:"query"`
	Photos  []gallery.PhotoRecord `json:"photos"`
	SavedAs string                `json:"saved_as,omitempty"`
}
