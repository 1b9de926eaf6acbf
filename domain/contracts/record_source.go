package contracts

import (
	"context"

	"spoadmin/domain/records"
)

// Site is a selectable container returned by a site directory search.
type Site struct {
	ID          string
	URL         string
	DisplayName string
}

// SiteDirectory finds the containers an operator can load records from.
type SiteDirectory interface {
	ListSites(ctx context.Context, search string) ([]Site, error)
}

// RecordSource fetches leaf records for a set of containers. Structured fields arrive
// pre-serialized as JSON text. A failed fetch returns no records at all.
type RecordSource interface {
	FetchRecords(ctx context.Context, containerIDs []string) ([]records.Record, error)
}

// RecordWriter persists one record's full field set. It must return an error on any
// remote failure and must not be considered to have partially applied.
type RecordWriter interface {
	WriteRecord(ctx context.Context, record records.Record) error
}

// RecordWriterFunc adapts a function to RecordWriter.
type RecordWriterFunc func(ctx context.Context, record records.Record) error

func (f RecordWriterFunc) WriteRecord(ctx context.Context, record records.Record) error {
	return f(ctx, record)
}
