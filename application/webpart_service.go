package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/logging"
)

// AllPages selects every fetched page when loading the editor.
const AllPages = "ALL"

// Status message types shown to the operator.
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusMessage is the human-readable outcome of an operation.
type StatusMessage struct {
	Type string
	Text string
}

// PageOption is one selectable page from the fetched catalog.
type PageOption struct {
	ID   string
	URL  string
	Name string
}

// WebPartService drives the web part editing workflow: find sites, fetch every web part on
// their pages, load a page selection into the store, edit, and commit.
type WebPartService struct {
	directory contracts.SiteDirectory
	source    contracts.RecordSource
	writer    contracts.RecordWriter
	store     *RecordStore
	committer *BatchCommitter
	logger    *logging.Logger

	mu      sync.RWMutex
	catalog []records.Record
}

// NewWebPartService wires the workflow around an existing store and committer.
func NewWebPartService(
	directory contracts.SiteDirectory,
	source contracts.RecordSource,
	writer contracts.RecordWriter,
	store *RecordStore,
	committer *BatchCommitter,
) *WebPartService {
	return &WebPartService{
		directory: directory,
		source:    source,
		writer:    writer,
		store:     store,
		committer: committer,
		logger:    logging.Default().WithComponent("webpart_service"),
	}
}

// Store exposes the record store for field-level edits.
func (s *WebPartService) Store() *RecordStore {
	return s.store
}

// LoadSites searches the site directory.
func (s *WebPartService) LoadSites(ctx context.Context, search string) ([]contracts.Site, StatusMessage, error) {
	if search == "" {
		search = "*"
	}
	sites, err := s.directory.ListSites(ctx, search)
	if err != nil {
		s.logger.Error("Failed to load sites", "search", search, "error", err)
		return nil, StatusMessage{StatusError, fmt.Sprintf("Failed to load sites: %v", err)}, err
	}
	return sites, StatusMessage{StatusSuccess, fmt.Sprintf("Loaded %d site(s).", len(sites))}, nil
}

// FetchPages fetches every web part on every page of the given sites. On failure the
// previously fetched catalog is kept.
func (s *WebPartService) FetchPages(ctx context.Context, siteIDs []string) ([]PageOption, StatusMessage, error) {
	if len(siteIDs) == 0 {
		err := fmt.Errorf("%w: select at least one site", records.ErrInvalidArgument)
		return nil, StatusMessage{StatusError, "Select at least one site."}, err
	}

	start := time.Now()
	fetched, err := s.source.FetchRecords(ctx, siteIDs)
	if err != nil {
		s.logger.Error("Failed to fetch web parts", "sites", len(siteIDs), "error", err)
		return nil, StatusMessage{StatusError, fmt.Sprintf("Failed to load site page web parts: %v", err)}, err
	}
	s.logger.Performance("fetch_webparts", time.Since(start), slog.Int("sites", len(siteIDs)), slog.Int("webparts", len(fetched)))

	s.mu.Lock()
	s.catalog = fetched
	s.mu.Unlock()

	return s.PageOptions(), StatusMessage{StatusSuccess, fmt.Sprintf("Loaded %d site page web part(s).", len(fetched))}, nil
}

// PageOptions lists the distinct pages of the current catalog, AllPages first.
func (s *WebPartService) PageOptions() []PageOption {
	s.mu.RLock()
	defer s.mu.RUnlock()

	options := []PageOption{{ID: AllPages, Name: "All Pages"}}
	seen := make(map[string]struct{})
	for _, r := range s.catalog {
		if _, ok := seen[r.Key.ParentID]; ok {
			continue
		}
		seen[r.Key.ParentID] = struct{}{}
		options = append(options, PageOption{ID: r.Key.ParentID, URL: r.Meta.PageURL, Name: r.Meta.PageName})
	}
	return options
}

// SelectPage loads the web parts of one page, or of every page for AllPages, into the store.
func (s *WebPartService) SelectPage(pageID string) (int, StatusMessage, error) {
	s.mu.RLock()
	selected := make([]records.Record, 0, len(s.catalog))
	for _, r := range s.catalog {
		if pageID == "" || pageID == AllPages || r.Key.ParentID == pageID {
			selected = append(selected, r)
		}
	}
	s.mu.RUnlock()

	if err := s.store.Load(selected); err != nil {
		return 0, StatusMessage{StatusError, fmt.Sprintf("Failed to parse pages: %v", err)}, err
	}
	return len(selected), StatusMessage{StatusSuccess, fmt.Sprintf("Parsed %d web part properties.", len(selected))}, nil
}

// Replace runs a literal find/replace over the records matching keyword.
func (s *WebPartService) Replace(keyword, from, to string) (int, StatusMessage, error) {
	touched, err := s.store.ReplaceAcrossFiltered(s.store.Filter(keyword), from, to)
	if err != nil {
		if errors.Is(err, records.ErrInvalidArgument) {
			return 0, StatusMessage{StatusError, "Please provide the text to replace."}, err
		}
		return 0, StatusMessage{StatusError, fmt.Sprintf("Replace failed: %v", err)}, err
	}
	return touched, StatusMessage{StatusSuccess, fmt.Sprintf("Replaced text in %d record(s).", touched)}, nil
}

// Commit saves every dirty record with the configured writer.
func (s *WebPartService) Commit(ctx context.Context) (*records.CommitResult, StatusMessage, error) {
	result, err := s.committer.CommitAll(ctx, s.writer)
	if err != nil {
		return nil, StatusMessage{StatusError, fmt.Sprintf("Failed to save changes: %v", err)}, err
	}
	s.syncCatalog(result)
	msgType := StatusSuccess
	if result.Failed > 0 {
		msgType = StatusError
	}
	return result, StatusMessage{msgType, result.Summary()}, nil
}

// syncCatalog copies committed fields into the fetched catalog so a later SelectPage
// loads them as the baseline instead of the values from before the commit.
func (s *WebPartService) syncCatalog(result *records.CommitResult) {
	committed := make(map[records.Key]map[string]string)
	for _, entry := range result.Entries {
		if !entry.Success {
			continue
		}
		if fields, ok := s.store.Baseline(entry.Key); ok {
			committed[entry.Key] = fields
		}
	}
	if len(committed) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.catalog {
		if fields, ok := committed[s.catalog[i].Key]; ok {
			s.catalog[i].Fields = fields
		}
	}
}
