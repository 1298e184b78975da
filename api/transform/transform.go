// Package transform turns raw collector records into the per-country snapshot.
//
// Missing fields are never an error: they become nulls or the lookup defaults.
// Only data whose shape contradicts the record layout (a string where an object
// is expected, say) aborts the transform.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/morikuni/failure/v2"
	"github.com/travelwarn/travelwarn/api/collector"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"github.com/travelwarn/travelwarn/log"
)

// ErrorCode defines error types for record normalization
type ErrorCode string

const (
	ErrUnexpectedShape ErrorCode = "UnexpectedRecordShape"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// NullKey is the country key used for records without a URL slug.
// It matches how a null key has always been serialized in clean.json.
const NullKey = "null"

// recordView is the part of a record the transform reads.
type recordView struct {
	UrlName *string   `json:"UrlName"`
	Data    *dataView `json:"Data"`
}

type dataView struct {
	Pic *struct {
		Name *string `json:"Name"`
	} `json:"pic"`
	Details any `json:"details"`
	Other   *struct {
		URL *string `json:"URL"`
	} `json:"other"`
	// Country is a list of lists; the raw code is the first element of the first list.
	Country []any `json:"country"`
}

// Transformer builds snapshots from records.
type Transformer struct {
	Tables *lookup.Tables

	// Now stamps the document; defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// New returns a Transformer using the given tables.
func New(tables *lookup.Tables, logger *slog.Logger) *Transformer {
	return &Transformer{
		Tables: tables,
		Now:    time.Now,
		Logger: logger,
	}
}

// Transform maps each record to an Entry keyed by its resolved country code.
// Records are applied in order, so a later record replaces an earlier one with
// the same code.
func (t *Transformer) Transform(records []collector.Record) (snapshot.Document, error) {
	logger := log.Or(t.Logger).With("component", "transform")

	countries := make(map[string]snapshot.Entry, len(records))
	for i, rec := range records {
		code, entry, err := t.entry(rec)
		if err != nil {
			return snapshot.Document{}, failure.Wrap(err, failure.WithCode(ErrUnexpectedShape),
				failure.Message("Record has an unexpected shape"),
				failure.Context{"index": fmt.Sprint(i)},
			)
		}
		if _, dup := countries[code]; dup {
			logger.Debug("Country code seen twice, keeping the later record", "code", code, "index", i)
		}
		countries[code] = entry
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	logger.Info("Transformed travel warnings", "records", len(records), "countries", len(countries))
	return snapshot.Document{
		Countries: countries,
		Timestamp: now().Unix(),
	}, nil
}

func (t *Transformer) entry(rec collector.Record) (string, snapshot.Entry, error) {
	if rec == nil {
		return "", snapshot.Entry{}, errors.New("record is null, expected an object")
	}
	var view recordView
	if err := decodeRecord(rec, &view); err != nil {
		return "", snapshot.Entry{}, err
	}

	var (
		name, slug, url *string
		details         any
		rawCountry      *string
	)
	slug = view.UrlName
	if d := view.Data; d != nil {
		if d.Pic != nil {
			name = d.Pic.Name
		}
		details = d.Details
		if d.Other != nil {
			url = d.Other.URL
		}
		raw, err := firstCountryCode(d.Country)
		if err != nil {
			return "", snapshot.Entry{}, err
		}
		rawCountry = raw
	}

	var levels *string
	if name != nil {
		v := t.Tables.WarningLevel(*name)
		levels = &v
	}

	code := NullKey
	if slug != nil {
		code = t.Tables.CountryCode(*slug)
	}

	names := lookup.Names{He: lookup.NotAvailable, En: lookup.NotAvailable}
	if rawCountry != nil {
		names = t.Tables.CountryName(*rawCountry)
	}

	return code, snapshot.Entry{
		WarningLevels: levels,
		Details:       details,
		URL:           url,
		HebrewName:    names.He,
		EnglishName:   names.En,
	}, nil
}

func decodeRecord(rec collector.Record, out *recordView) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
		// Keys are case-sensitive: "urlname" is not UrlName.
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return err
	}
	return dec.Decode(rec)
}

// firstCountryCode returns country[0][0] as a string, or nil when either list is empty.
func firstCountryCode(country []any) (*string, error) {
	if len(country) == 0 || country[0] == nil {
		return nil, nil
	}
	inner, ok := country[0].([]any)
	if !ok {
		return nil, fmt.Errorf("country: expected a list of lists, got %T", country[0])
	}
	if len(inner) == 0 || inner[0] == nil {
		return nil, nil
	}

	var s string
	switch v := inner[0].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64, int, int64, bool:
		s = fmt.Sprint(v)
	default:
		return nil, fmt.Errorf("country: unsupported code type %T", v)
	}
	return &s, nil
}
