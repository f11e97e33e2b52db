// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the resource library as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jasper-go/internal/api"
	"jasper-go/internal/export"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

// Server wraps the MCP server with the library tools.
type Server struct {
	mcp      *server.MCPServer
	mgr      *jasper.LifecycleManager
	handlers map[string]server.ToolHandlerFunc
}

// New creates an MCP server with every tool registered.
func New(mgr *jasper.LifecycleManager, version string) *Server {
	s := &Server{mgr: mgr, handlers: make(map[string]server.ToolHandlerFunc)}

	s.mcp = server.NewMCPServer(
		"Jasper",
		version,
		server.WithToolCapabilities(false),
	)

	s.add(mcp.NewTool("add_resource",
		mcp.WithDescription("Add a resource to the library: either a web URL or an absolute path to a local file."),
		mcp.WithString("url", mcp.Description("http(s) URL of an external resource")),
		mcp.WithString("path", mcp.Description("Absolute path of a local file")),
		mcp.WithString("title", mcp.Description("Title; defaults to the URL or file name")),
		mcp.WithString("description", mcp.Description("Free-text description")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to attach")),
	), s.addResource)

	s.add(mcp.NewTool("get_resource",
		mcp.WithDescription("Read a resource with its locations, tags and properties."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
	), s.getResource)

	s.add(mcp.NewTool("search_resources",
		mcp.WithDescription("Search resources by text and tags. Returns one page of results with the total count."),
		mcp.WithString("query", mcp.Description("Text matched against title, description and locations")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to filter by")),
		mcp.WithString("logic", mcp.Description("How tags combine"), mcp.Enum("any", "all")),
		mcp.WithString("class", mcp.Description("Restrict to one resource class"),
			mcp.Enum(string(model.ClassExternal), string(model.ClassInternal), string(model.ClassExternalArchived), string(model.ClassInternalArchived))),
		mcp.WithString("sort", mcp.Description("Sort field"), mcp.Enum("modified", "created", "title", "accessed")),
		mcp.WithNumber("limit", mcp.Description("Page size")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.searchResources)

	s.add(mcp.NewTool("tag_resource",
		mcp.WithDescription("Attach tags to a resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
		mcp.WithArray("tags", mcp.Required(), mcp.WithStringItems(), mcp.Description("Tags to attach")),
	), s.tagResource)

	s.add(mcp.NewTool("untag_resource",
		mcp.WithDescription("Remove a tag from a resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to remove")),
	), s.untagResource)

	s.add(mcp.NewTool("set_property",
		mcp.WithDescription("Set a typed property on a resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Property key")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value in its textual form")),
		mcp.WithString("type", mcp.Description("Value type; inferred when omitted"), mcp.Enum("string", "number", "boolean", "date")),
	), s.setProperty)

	s.add(mcp.NewTool("archive_resource",
		mcp.WithDescription("Upload a resource to the permanent archival network and record the new archival location. This costs money and cannot be undone."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
		mcp.WithBoolean("primary", mcp.Description("Make the archival copy the primary location")),
	), s.archiveResource)

	s.add(mcp.NewTool("archival_history",
		mcp.WithDescription("List the archival copies of a resource, newest first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
	), s.archivalHistory)

	s.add(mcp.NewTool("estimate_archival",
		mcp.WithDescription("Estimate the cost of archiving resources without uploading anything."),
		mcp.WithArray("ids", mcp.Required(), mcp.WithStringItems(), mcp.Description("Resource ids")),
	), s.estimateArchival)

	s.add(mcp.NewTool("suggest_tags",
		mcp.WithDescription("Suggest existing tags by prefix, most used first."),
		mcp.WithString("prefix", mcp.Description("Tag prefix")),
		mcp.WithString("resource_id", mcp.Description("Exclude tags this resource already has")),
		mcp.WithNumber("limit", mcp.Description("Maximum suggestions")),
	), s.suggestTags)

	s.add(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with its usage count."),
	), s.listTags)

	s.add(mcp.NewTool("verify_resources",
		mcp.WithDescription("Check that resource locations are still reachable and record the result."),
		mcp.WithArray("ids", mcp.WithStringItems(), mcp.Description("Resource ids; all resources when omitted")),
		mcp.WithBoolean("include_archival", mcp.Description("Also probe archival gateway links")),
	), s.verifyResources)

	return s
}

func (s *Server) add(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.handlers[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta := jasper.Metadata{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Tags:        req.GetStringSlice("tags", nil),
	}
	rawURL, path := req.GetString("url", ""), req.GetString("path", "")

	var (
		res *model.Resource
		err error
	)
	switch {
	case rawURL != "" && path != "":
		return mcp.NewToolResultError("url and path are mutually exclusive"), nil
	case rawURL != "":
		res, err = s.mgr.AddExternal(ctx, rawURL, meta)
	case path != "":
		res, err = s.mgr.AddInternal(ctx, path, meta)
	default:
		return mcp.NewToolResultError("url or path is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(export.NewRecord(res))
}

func (s *Server) getResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.mgr.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(export.NewRecord(res))
}

func (s *Server) searchResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := model.Query{
		Text:   req.GetString("query", ""),
		Tags:   req.GetStringSlice("tags", nil),
		Logic:  model.TagLogic(req.GetString("logic", "")),
		Class:  model.ResourceClass(req.GetString("class", "")),
		Sort:   model.SortField(req.GetString("sort", "")),
		Limit:  req.GetInt("limit", 20),
		Offset: req.GetInt("offset", 0),
	}
	page, err := s.mgr.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.NewPageView(page))
}

func (s *Server) tagResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := req.GetStringSlice("tags", nil)
	if len(tags) == 0 {
		return mcp.NewToolResultError("tags is required"), nil
	}
	for _, t := range tags {
		if err := s.mgr.Tag(ctx, id, t); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	res, err := s.mgr.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(export.NewRecord(res))
}

func (s *Server) untagResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mgr.Untag(ctx, id, tag); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed tag %s from %s", tag, id)), nil
}

func (s *Server) setProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := api.PropertyInput{Type: req.GetString("type", ""), Value: raw}.Parse(key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mgr.SetProperty(ctx, id, key, v); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("set %s = %s (%s) on %s", key, v.String(), v.Type(), id)), nil
}

func (s *Server) archiveResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	receipt, err := s.mgr.Archive(ctx, id, jasper.ArchiveOptions{Primary: req.GetBool("primary", false)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.NewReceiptView(receipt))
}

func (s *Server) archivalHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	copies, err := s.mgr.ArchivalHistory(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(copies) == 0 {
		return mcp.NewToolResultText("no archival copies"), nil
	}
	return jsonResult(api.NewHistoryView(copies))
}

func (s *Server) estimateArchival(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultError("ids is required"), nil
	}
	est, err := s.mgr.EstimateArchival(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.NewEstimateView(est))
}

func (s *Server) suggestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.mgr.SuggestTags(ctx, req.GetString("resource_id", ""), req.GetString("prefix", ""), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no suggestions"), nil
	}
	return jsonResult(tags)
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.mgr.TagIndex().Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.NewTagsView(tags))
}

func (s *Server) verifyResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.mgr.Verify(ctx, jasper.VerifyOptions{
		IDs:             req.GetStringSlice("ids", nil),
		IncludeArchival: req.GetBool("include_archival", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.NewVerifyView(report))
}
