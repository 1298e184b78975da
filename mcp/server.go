package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/travelwarn/travelwarn/api"
	"github.com/travelwarn/travelwarn/api/cache"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"github.com/travelwarn/travelwarn/config"
	"github.com/travelwarn/travelwarn/log"
	"golang.org/x/sync/singleflight"
)

// SnapshotTTL is how long a scraped snapshot is served from the cache.
const SnapshotTTL = time.Hour

// Server represents the MCP server for travelwarn
type Server struct {
	server *server.MCPServer

	cfg    config.Config
	tables *lookup.Tables
	cache  *cache.Cache[[]byte]
	group  singleflight.Group
}

// NewServer creates a new MCP server instance
func NewServer(cfg config.Config, tables *lookup.Tables) *Server {
	s := &Server{
		server: server.NewMCPServer("travelwarn", api.Version),
		cfg:    cfg,
		tables: tables,
		cache:  cache.New[[]byte]("snapshots", SnapshotTTL),
	}
	s.server.AddTools(s.tools()...)
	return s
}

// Run serves on stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.server)
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		newServerTool(s.getTravelWarnings()),
		newServerTool(s.resolveCountry()),
	}
}

func newServerTool(tool mcp.Tool, handler server.ToolHandlerFunc) server.ServerTool {
	return server.ServerTool{
		Tool:    tool,
		Handler: handler,
	}
}

// snapshot returns the cached document, scraping when the cache is cold or
// refresh is set. Concurrent calls wait on the same scrape.
func (s *Server) snapshot(ctx context.Context, refresh bool) (snapshot.Document, error) {
	key := "snapshot/" + s.cfg.TemplateID.String()

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.cache.GetOrSet(key, func() ([]byte, error) {
			doc, sum, err := api.Scrape(ctx, s.cfg, s.tables)
			if err != nil {
				return nil, err
			}
			log.Info("Scraped travel warnings for MCP", "records", sum.Records, "countries", sum.Countries)
			return snapshot.Encode(doc)
		}, refresh)
	})
	if err != nil {
		// The value is still usable when only the cache write failed.
		b, ok := v.([]byte)
		if !ok || b == nil {
			return snapshot.Document{}, err
		}
		log.Warn("Failed to cache snapshot", "error", err)
		v = b
	}
	if shared {
		log.Debug("Shared in-flight scrape", "key", key)
	}
	return snapshot.Decode(v.([]byte))
}
