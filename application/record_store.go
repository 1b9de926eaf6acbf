package application

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"spoadmin/domain/events"
	"spoadmin/domain/jsonedit"
	"spoadmin/domain/records"
	"spoadmin/logging"
)

// RecordStore owns the loaded records, their baselines and the set of dirty keys.
// All mutations go through it so dirtiness is recomputed incrementally per record.
// While a batch commit is running every mutation is rejected with records.ErrCommitInProgress.
type RecordStore struct {
	mu         sync.Mutex
	order      []records.Key
	current    map[records.Key]*records.Record
	baseline   map[records.Key]map[string]string
	dirty      map[records.Key]struct{}
	committing bool

	publisher events.RecordEventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

// NewRecordStore creates an empty store. publisher may be nil.
func NewRecordStore(publisher events.RecordEventPublisher) *RecordStore {
	return &RecordStore{
		current:   make(map[records.Key]*records.Record),
		baseline:  make(map[records.Key]map[string]string),
		dirty:     make(map[records.Key]struct{}),
		publisher: publisher,
		logger:    logging.Default().WithComponent("record_store"),
		now:       time.Now,
	}
}

// Load replaces the collection. Every incoming record starts clean.
func (s *RecordStore) Load(recs []records.Record) error {
	seen := make(map[records.Key]struct{}, len(recs))
	for _, r := range recs {
		if err := r.Key.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("%w: duplicate record key %s", records.ErrInvalidArgument, r.Key)
		}
		seen[r.Key] = struct{}{}
	}

	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return records.ErrCommitInProgress
	}
	s.order = make([]records.Key, 0, len(recs))
	s.current = make(map[records.Key]*records.Record, len(recs))
	s.baseline = make(map[records.Key]map[string]string, len(recs))
	s.dirty = make(map[records.Key]struct{})
	for _, r := range recs {
		c := r.Clone()
		s.order = append(s.order, c.Key)
		s.current[c.Key] = &c
		s.baseline[c.Key] = maps.Clone(c.Fields)
	}
	s.mu.Unlock()

	s.logger.Info("Records loaded", "count", len(recs))
	if s.publisher != nil {
		s.publisher.PublishRecordsLoaded(events.RecordsLoadedEvent{Count: len(recs), Timestamp: s.now()})
	}
	return nil
}

// SetField sets the current value of one field and reports whether the record is dirty afterwards.
func (s *RecordStore) SetField(key records.Key, field, value string) (bool, error) {
	s.mu.Lock()
	if err := s.checkFieldLocked(key, field); err != nil {
		s.mu.Unlock()
		return false, err
	}
	ev := s.setFieldLocked(key, field, value)
	s.mu.Unlock()

	s.publishFieldChanged(ev)
	return ev.Dirty, nil
}

// SetFieldPath edits a nested value inside a structured field. rawValue is coerced the way
// edited text is coerced on save: JSON literals keep their type, anything else is a string.
func (s *RecordStore) SetFieldPath(key records.Key, field, path, rawValue string) (bool, error) {
	return s.editFieldDocument(key, field, func(doc string) (string, error) {
		return jsonedit.SetPath(doc, path, rawValue)
	})
}

// DeleteFieldPath removes a nested value from a structured field.
func (s *RecordStore) DeleteFieldPath(key records.Key, field, path string) (bool, error) {
	return s.editFieldDocument(key, field, func(doc string) (string, error) {
		return jsonedit.DeletePath(doc, path)
	})
}

func (s *RecordStore) editFieldDocument(key records.Key, field string, edit func(string) (string, error)) (bool, error) {
	s.mu.Lock()
	if err := s.checkFieldLocked(key, field); err != nil {
		s.mu.Unlock()
		return false, err
	}
	updated, err := edit(s.current[key].Fields[field])
	if err != nil {
		s.mu.Unlock()
		var parseErr *jsonedit.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Field = field
		}
		return false, err
	}
	ev := s.setFieldLocked(key, field, updated)
	s.mu.Unlock()

	s.publishFieldChanged(ev)
	return ev.Dirty, nil
}

// ReplaceAcrossFiltered applies a literal find/replace to every structured field of the
// selected records and returns how many records changed. Fields that are not JSON are skipped.
func (s *RecordStore) ReplaceAcrossFiltered(keys []records.Key, from, to string) (int, error) {
	if from == "" {
		return 0, fmt.Errorf("%w: find text must not be empty", records.ErrInvalidArgument)
	}
	selected := make(map[records.Key]struct{}, len(keys))
	for _, k := range keys {
		selected[k] = struct{}{}
	}

	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return 0, records.ErrCommitInProgress
	}

	var changedEvents []events.FieldChangedEvent
	touched := 0
	for _, key := range s.order {
		if _, ok := selected[key]; !ok {
			continue
		}
		rec := s.current[key]
		recordTouched := false
		for _, field := range slices.Sorted(maps.Keys(rec.Fields)) {
			text := rec.Fields[field]
			if !jsonedit.IsStructured(text) {
				continue
			}
			replaced, changed, err := jsonedit.ReplaceText(text, from, to)
			if err != nil {
				s.logger.Debug("Skipping field during replace", "record_key", key.String(), "field", field, "error", err)
				continue
			}
			if !changed {
				continue
			}
			changedEvents = append(changedEvents, s.setFieldLocked(key, field, replaced))
			recordTouched = true
		}
		if recordTouched {
			touched++
		}
	}
	s.mu.Unlock()

	for _, ev := range changedEvents {
		s.publishFieldChanged(ev)
	}
	s.logger.Info("Replace applied", "selected", len(selected), "touched", touched)
	return touched, nil
}

// Revert drops the local edits of one record.
func (s *RecordStore) Revert(key records.Key) error {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return records.ErrCommitInProgress
	}
	rec, ok := s.current[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", records.ErrRecordNotFound, key)
	}
	base := s.baseline[key]
	var reverted []events.FieldChangedEvent
	for field, value := range rec.Fields {
		if baseValue, ok := base[field]; !ok || baseValue != value {
			reverted = append(reverted, events.FieldChangedEvent{Key: key, Field: field, NewValue: base[field], Timestamp: s.now()})
		}
	}
	rec.Fields = maps.Clone(base)
	delete(s.dirty, key)
	s.mu.Unlock()

	slices.SortFunc(reverted, func(a, b events.FieldChangedEvent) int { return strings.Compare(a.Field, b.Field) })
	for _, ev := range reverted {
		s.publishFieldChanged(ev)
	}
	return nil
}

// Baseline returns a copy of the last known-good fields of key.
func (s *RecordStore) Baseline(key records.Key) (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.baseline[key]
	if !ok {
		return nil, false
	}
	return maps.Clone(base), true
}

// Filter returns the keys, in load order, of records whose identifiers, metadata or field
// values contain keyword (case-insensitive). An empty keyword selects everything.
func (s *RecordStore) Filter(keyword string) []records.Key {
	needle := strings.ToLower(strings.TrimSpace(keyword))

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]records.Key, 0, len(s.order))
	for _, key := range s.order {
		if needle == "" || matchesKeyword(s.current[key], needle) {
			keys = append(keys, key)
		}
	}
	return keys
}

func matchesKeyword(r *records.Record, needle string) bool {
	candidates := []string{
		r.Key.ContainerID, r.Key.ParentID, r.Key.RecordID,
		r.Meta.Title, r.Meta.Type, r.Meta.PageURL, r.Meta.PageName, r.Meta.ContainerURL,
	}
	for _, v := range r.Fields {
		candidates = append(candidates, v)
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

// IsDirty reports whether key has pending edits.
func (s *RecordStore) IsDirty(key records.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[key]
	return ok
}

// DirtyCount returns the size of the change set.
func (s *RecordStore) DirtyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}

// Committing reports whether a batch commit currently holds the store.
func (s *RecordStore) Committing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committing
}

// GetDirtyRecords returns copies of all dirty records in load order.
func (s *RecordStore) GetDirtyRecords() []records.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtySnapshotLocked()
}

// Get returns a copy of one record.
func (s *RecordStore) Get(key records.Key) (records.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.current[key]
	if !ok {
		return records.Record{}, false
	}
	return rec.Clone(), true
}

// Records returns copies of every loaded record in load order.
func (s *RecordStore) Records() []records.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]records.Record, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.current[key].Clone())
	}
	return out
}

// beginCommit locks the store against mutation and snapshots the change set.
func (s *RecordStore) beginCommit() ([]records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return nil, records.ErrCommitInProgress
	}
	s.committing = true
	return s.dirtySnapshotLocked(), nil
}

// markCommitted advances the baseline of key to the fields that were written.
func (s *RecordStore) markCommitted(key records.Key, written map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.current[key]; !ok {
		return
	}
	s.baseline[key] = maps.Clone(written)
	s.refreshDirtyLocked(key)
}

func (s *RecordStore) endCommit() {
	s.mu.Lock()
	s.committing = false
	s.mu.Unlock()
}

func (s *RecordStore) dirtySnapshotLocked() []records.Record {
	out := make([]records.Record, 0, len(s.dirty))
	for _, key := range s.order {
		if _, ok := s.dirty[key]; ok {
			out = append(out, s.current[key].Clone())
		}
	}
	return out
}

func (s *RecordStore) checkFieldLocked(key records.Key, field string) error {
	if s.committing {
		return records.ErrCommitInProgress
	}
	rec, ok := s.current[key]
	if !ok {
		return fmt.Errorf("%w: %s", records.ErrRecordNotFound, key)
	}
	if _, ok := rec.Fields[field]; !ok {
		return fmt.Errorf("%w: %s on %s", records.ErrFieldNotFound, field, key)
	}
	return nil
}

func (s *RecordStore) setFieldLocked(key records.Key, field, value string) events.FieldChangedEvent {
	s.current[key].Fields[field] = value
	dirty := s.refreshDirtyLocked(key)
	return events.FieldChangedEvent{
		Key:       key,
		Field:     field,
		NewValue:  value,
		Dirty:     dirty,
		Timestamp: s.now(),
	}
}

// refreshDirtyLocked compares every field of key with its baseline and updates the dirty set.
func (s *RecordStore) refreshDirtyLocked(key records.Key) bool {
	current := s.current[key].Fields
	base := s.baseline[key]

	dirty := len(current) != len(base)
	if !dirty {
		for field, value := range current {
			baseValue, ok := base[field]
			if !ok || !jsonedit.Equal(value, baseValue) {
				dirty = true
				break
			}
		}
	}

	if dirty {
		s.dirty[key] = struct{}{}
	} else {
		delete(s.dirty, key)
	}
	return dirty
}

func (s *RecordStore) publishFieldChanged(ev events.FieldChangedEvent) {
	if s.publisher != nil {
		s.publisher.PublishFieldChanged(ev)
	}
}
