// Package mcp serves travel warnings over the Model Context Protocol.
//
// Tools:
//   - get_travel_warnings: the whole snapshot, or one country entry
//   - resolve_country: how a URL slug and raw country code normalize
//
// Snapshots are cached on disk for an hour and concurrent callers share a
// single upstream scrape.
package mcp
