package helpers

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"spoadmin/domain/records"
	"spoadmin/test/mocks"
)

// MockRemote holds the remote-facing mocks for easy injection
type MockRemote struct {
	Directory *mocks.MockSiteDirectory
	Source    *mocks.MockRecordSource
	Writer    *mocks.MockRecordWriter
	Journal   *mocks.MockCommitJournalRepository
}

// NewMockRemote creates a new set of remote mocks
func NewMockRemote() *MockRemote {
	return &MockRemote{
		Directory: &mocks.MockSiteDirectory{},
		Source:    &mocks.MockRecordSource{},
		Writer:    &mocks.MockRecordWriter{},
		Journal:   &mocks.MockCommitJournalRepository{},
	}
}

// ExpectWriteSucceeds lets every write of key succeed
func (m *MockRemote) ExpectWriteSucceeds(key records.Key) {
	m.Writer.On("WriteRecord", mock.Anything, mock.MatchedBy(func(r records.Record) bool {
		return r.Key == key
	})).Return(nil)
}

// ExpectWriteFails makes every write of key fail with err
func (m *MockRemote) ExpectWriteFails(key records.Key, err error) {
	m.Writer.On("WriteRecord", mock.Anything, mock.MatchedBy(func(r records.Record) bool {
		return r.Key == key
	})).Return(err)
}

// ExpectJournalSave accepts any journal write
func (m *MockRemote) ExpectJournalSave() {
	m.Journal.On("SaveCommitRun", mock.Anything, mock.Anything).Return(nil)
}

// AssertAllExpectations verifies all mock expectations were met
func (m *MockRemote) AssertAllExpectations(t mock.TestingT) {
	m.Directory.AssertExpectations(t)
	m.Source.AssertExpectations(t)
	m.Writer.AssertExpectations(t)
	m.Journal.AssertExpectations(t)
}

// TestData provides simple builders for test data
type TestData struct{}

// NewTestData creates a test data builder
func NewTestData() *TestData {
	return &TestData{}
}

// Key builds a record key on site "site" and the given page.
func (td *TestData) Key(page, id string) records.Key {
	return records.Key{ContainerID: "site", ParentID: page, RecordID: id}
}

// WebPart creates a web part record with the given properties JSON
func (td *TestData) WebPart(page, id, properties string) records.Record {
	return records.Record{
		Key:  td.Key(page, id),
		Meta: records.Metadata{Title: "Web part " + id, Type: "hero", PageName: page + ".aspx"},
		Fields: map[string]string{
			records.FieldProperties:             properties,
			records.FieldServerProcessedContent: "{}",
			records.FieldInnerHTML:              "",
		},
	}
}

// WebParts creates n web parts on one page whose properties all carry the same link
func (td *TestData) WebParts(page string, n int, link string) []records.Record {
	out := make([]records.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, td.WebPart(page, fmt.Sprintf("wp-%d", i), fmt.Sprintf(`{"link":%q}`, link)))
	}
	return out
}

// Helper for common test context
func TestContext() context.Context {
	return context.Background()
}
