// Package cli implements the command-line interface for travelwarn.
//
// The cli package provides:
// - the scrape command that writes clean.json
// - inspection of lookup tables and snapshots (resolve, missing)
// - an interactive snapshot viewer with rendered advisory details
// - the MCP server entry point
package cli
