package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(
		mcp.NewResource("console://logs", "Console logs",
			mcp.WithResourceDescription("Console output captured from all tabs this session, oldest first"),
			mcp.WithMIMEType("text/plain"),
		),
		s.readConsoleResource,
	)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("screenshot://{name}", "Screenshots",
			mcp.WithTemplateDescription("Screenshots captured with browser_screenshot, addressed by name"),
			mcp.WithTemplateMIMEType("image/png"),
		),
		s.readScreenshotResource,
	)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("download://{name}", "Downloads",
			mcp.WithTemplateDescription("Completed downloads, addressed by byte-store key from browser_downloads"),
			mcp.WithTemplateMIMEType("application/octet-stream"),
		),
		s.readDownloadResource,
	)
}

func (s *Server) readConsoleResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries := s.session.Console().Tail(0)
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s [%s] %s\n", e.Time.Format("15:04:05.000"), e.Level, e.Text)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		},
	}, nil
}

func (s *Server) readScreenshotResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(request.Params.URI, "screenshot://")
	data, _, ok := s.session.Screenshots().Get(name)
	if !ok {
		var names []string
		for _, meta := range s.session.Screenshots().List() {
			names = append(names, meta.Name)
		}
		if len(names) > 0 {
			return nil, fmt.Errorf("no screenshot named %q; stored: %s", name, strings.Join(names, ", "))
		}
		return nil, fmt.Errorf("no screenshot named %q", name)
	}
	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      request.Params.URI,
			MIMEType: "image/png",
			Blob:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

func (s *Server) readDownloadResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(request.Params.URI, "download://")
	data, ok := s.session.Downloads().Blob(name)
	if !ok {
		return nil, fmt.Errorf("no completed download with key %q", name)
	}
	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/octet-stream",
			Blob:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}
