package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/api/snapshot"
)

var validate = validator.New()

func (s *Server) getTravelWarnings() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"get_travel_warnings",
			mcp.WithDescription("Get the current gov.il travel warnings, for every country or a single one"),
			mcp.WithString("country", mcp.Description("ISO 3166 alpha-3 code (e.g. EGY) or gov.il URL slug (e.g. egypt); omit for all countries")),
			mcp.WithBoolean("refresh", mcp.Description("Scrape again even if a recent snapshot is cached")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				Country string `json:"country" validate:"omitempty,max=64"`
				Refresh bool   `json:"refresh"`
			}
			var args ToolArguments
			if err := decodeArguments(req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := validate.StructCtx(ctx, args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			doc, err := s.snapshot(ctx, args.Refresh)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if args.Country == "" {
				return jsonResult(doc)
			}

			code, entry, ok := s.findCountry(doc, args.Country)
			if !ok {
				return mcp.NewToolResultError("No travel warning found for " + args.Country), nil
			}

			type CountryWarning struct {
				Code      string         `json:"code"`
				Timestamp int64          `json:"timestamp"`
				Entry     snapshot.Entry `json:"entry"`
			}
			return jsonResult(CountryWarning{
				Code:      code,
				Timestamp: doc.Timestamp,
				Entry:     entry,
			})
		}
}

func (s *Server) resolveCountry() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"resolve_country",
			mcp.WithDescription("Show how a gov.il URL slug and raw country code are normalized"),
			mcp.WithString("slug", mcp.Required(), mcp.Description("gov.il URL slug (e.g. egypt)")),
			mcp.WithString("country_code", mcp.Description("Raw country code from the record (e.g. 818)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				Slug        string `json:"slug" validate:"required"`
				CountryCode string `json:"country_code" validate:"omitempty"`
			}
			var args ToolArguments
			if err := decodeArguments(req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := validate.StructCtx(ctx, args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			type Resolution struct {
				Slug        string `json:"slug"`
				Code        string `json:"code"`
				Mapped      bool   `json:"mapped"`
				HebrewName  string `json:"hebrew_name"`
				EnglishName string `json:"english_name"`
			}

			code := s.tables.CountryCode(args.Slug)
			names := lookup.Names{He: lookup.NotAvailable, En: lookup.NotAvailable}
			if args.CountryCode != "" {
				names = s.tables.CountryName(args.CountryCode)
			}
			return jsonResult(Resolution{
				Slug:        args.Slug,
				Code:        code,
				Mapped:      code != args.Slug,
				HebrewName:  names.He,
				EnglishName: names.En,
			})
		}
}

// decodeArguments fills out from the tool arguments, matching keys on the json tag.
func decodeArguments(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// findCountry matches an exact key, then an upper-cased code, then a slug
// resolved through the lookup tables.
func (s *Server) findCountry(doc snapshot.Document, query string) (string, snapshot.Entry, bool) {
	for _, code := range []string{
		query,
		strings.ToUpper(query),
		s.tables.CountryCode(strings.ToLower(query)),
	} {
		if e, ok := doc.Countries[code]; ok {
			return code, e, true
		}
	}
	return "", snapshot.Entry{}, false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
