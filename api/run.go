package api

import (
	"context"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/travelwarn/travelwarn/api/collector"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"github.com/travelwarn/travelwarn/api/transform"
	"github.com/travelwarn/travelwarn/config"
	"github.com/travelwarn/travelwarn/log"
)

// Summary describes a finished run.
type Summary struct {
	Records   int
	Countries int
	Output    string
	Duration  time.Duration
}

// LoadTables returns the bundled lookup tables, or the file at path when set.
func LoadTables(path string) (*lookup.Tables, error) {
	if path == "" {
		return lookup.Default()
	}
	return lookup.Load(path)
}

// Scrape fetches every record and normalizes it into a document without
// touching the filesystem.
func Scrape(ctx context.Context, cfg config.Config, tables *lookup.Tables) (snapshot.Document, Summary, error) {
	start := time.Now()
	var sum Summary

	client := collector.New(cfg.CollectorOptions())
	records, err := client.FetchAll(ctx)
	if err != nil {
		sum.Duration = time.Since(start)
		return snapshot.Document{}, sum, failure.Wrap(err, failure.WithCode(ErrScrape),
			failure.Message("Scrape failed"),
		)
	}
	sum.Records = len(records)

	doc, err := transform.New(tables, nil).Transform(records)
	if err != nil {
		sum.Duration = time.Since(start)
		return snapshot.Document{}, sum, failure.Wrap(err, failure.WithCode(ErrTransform),
			failure.Message("Transform failed"),
		)
	}
	sum.Countries = len(doc.Countries)
	sum.Duration = time.Since(start)
	return doc, sum, nil
}

// Run scrapes and writes the snapshot to cfg.Output. The output file is only
// touched after both fetching and transforming succeeded.
func Run(ctx context.Context, cfg config.Config, tables *lookup.Tables) (Summary, error) {
	start := time.Now()

	doc, sum, err := Scrape(ctx, cfg, tables)
	if err != nil {
		return sum, err
	}

	if err := snapshot.Write(cfg.Output, doc); err != nil {
		sum.Duration = time.Since(start)
		return sum, failure.Wrap(err, failure.WithCode(ErrWrite),
			failure.Message("Write failed"),
			failure.Context{"path": cfg.Output},
		)
	}
	sum.Output = cfg.Output
	sum.Duration = time.Since(start)

	log.Info("Snapshot written",
		"path", sum.Output,
		"records", sum.Records,
		"countries", sum.Countries,
		"duration", sum.Duration,
	)
	return sum, nil
}
