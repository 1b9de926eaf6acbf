package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"spoadmin/domain/records"
	"spoadmin/domain/requests"
)

type staticCredential struct {
	token string
	err   error
}

func (c staticCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newTestClient(t *testing.T, handler http.Handler, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	return NewClient(staticCredential{token: "test-token"}, server.Client(), cfg), server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListSites_FollowsNextLink(t *testing.T) {
	// Arrange
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sites", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, map[string]any{"value": []map[string]string{
				{"id": "site-b", "webUrl": "https://contoso/sites/b", "displayName": "B"},
			}})
			return
		}
		assert.Equal(t, "*", r.URL.Query().Get("search"))
		writeJSON(w, map[string]any{
			"value": []map[string]string{
				{"id": "site-a", "webUrl": "https://contoso/sites/a", "displayName": "A"},
			},
			"@odata.nextLink": server.URL + "/sites?search=*&page=2",
		})
	})
	client, srv := newTestClient(t, mux, Config{})
	server = srv

	// Act
	sites, err := client.ListSites(context.Background(), "*")

	// Assert
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "site-a", sites[0].ID)
	assert.Equal(t, "https://contoso/sites/a", sites[0].URL)
	assert.Equal(t, "B", sites[1].DisplayName)
}

func TestClient_RemoteErrorCarriesGraphCode(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":"accessDenied","message":"Access denied"}}`)
	})
	client, _ := newTestClient(t, handler, Config{})

	// Act
	_, err := client.ListSites(context.Background(), "*")

	// Assert
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.Equal(t, "accessDenied", remoteErr.Code)
	assert.ErrorIs(t, err, records.ErrRemoteFailure)
}

func TestClient_TokenFailureIsRemoteFailure(t *testing.T) {
	client := NewClient(staticCredential{err: errors.New("no cert")}, nil, Config{BaseURL: "http://127.0.0.1:1"})

	_, err := client.ListSites(context.Background(), "*")

	assert.ErrorIs(t, err, records.ErrRemoteFailure)
	assert.Contains(t, err.Error(), "no cert")
}

func TestClient_FetchRecords_MapsWebParts(t *testing.T) {
	// Arrange
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/site-a/pages/microsoft.graph.sitePage", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "canvasLayout", r.URL.Query().Get("$expand"))
		writeJSON(w, map[string]any{"value": []map[string]string{
			{"id": "page-1", "name": "Home.aspx", "webUrl": "https://contoso/sites/a/SitePages/Home.aspx"},
		}})
	})
	mux.HandleFunc("/sites/site-a/pages/page-1/microsoft.graph.sitePage/webParts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"value":[
			{"@odata.type":"#microsoft.graph.standardWebPart","id":"wp-1","webPartType":"hero",
			 "data":{"title":"Hero","properties":{"link":"https://old/x"},"serverProcessedContent":{"links":[]}}},
			{"@odata.type":"#microsoft.graph.textWebPart","id":"wp-2","innerHtml":"<p>Hi</p>"}
		]}`)
	})
	client, _ := newTestClient(t, mux, Config{})

	// Act
	recs, err := client.FetchRecords(context.Background(), []string{"site-a"})

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 2)

	hero := recs[0]
	assert.Equal(t, records.Key{ContainerID: "site-a", ParentID: "page-1", RecordID: "wp-1"}, hero.Key)
	assert.Equal(t, "Hero", hero.Meta.Title)
	assert.Equal(t, "Home.aspx", hero.Meta.PageName)
	assert.JSONEq(t, `{"link":"https://old/x"}`, hero.Fields[records.FieldProperties])
	assert.JSONEq(t, `{"links":[]}`, hero.Fields[records.FieldServerProcessedContent])
	assert.Empty(t, hero.Fields[records.FieldInnerHTML])

	text := recs[1]
	assert.Equal(t, "<p>Hi</p>", text.Fields[records.FieldInnerHTML])
	assert.Equal(t, "{}", text.Fields[records.FieldProperties])
}

func TestClient_FetchRecords_FailureReturnsNothing(t *testing.T) {
	// Arrange
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/good/pages/microsoft.graph.sitePage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"value": []any{}})
	})
	mux.HandleFunc("/sites/bad/pages/microsoft.graph.sitePage", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux, Config{FetchConcurrency: 1})

	// Act
	recs, err := client.FetchRecords(context.Background(), []string{"good", "bad"})

	// Assert
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, records.ErrRemoteFailure)
	assert.Contains(t, err.Error(), "site bad")
}

func TestClient_WriteRecord_PatchesAndPublishes(t *testing.T) {
	// Arrange
	var mu sync.Mutex
	var calls []recordedRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := newTestClient(t, handler, Config{PublishAfterWrite: true})

	rec := records.Record{
		Key: records.Key{ContainerID: "site-a", ParentID: "page-1", RecordID: "wp-1"},
		Fields: map[string]string{
			records.FieldProperties:             `{"link":"https://new/x"}`,
			records.FieldServerProcessedContent: `{}`,
			records.FieldInnerHTML:              "",
		},
		Raw: []byte(`{"@odata.context":"https://graph/$metadata#x","id":"wp-1","webPartType":"hero",
			"data":{"title":"Hero","properties":{"link":"https://old/x","@odata.context":"y"}}}`),
	}

	// Act
	err := client.WriteRecord(context.Background(), rec)

	// Assert
	require.NoError(t, err)
	require.Len(t, calls, 2)

	patch := calls[0]
	assert.Equal(t, http.MethodPatch, patch.Method)
	assert.Equal(t, "/sites/site-a/pages/page-1/microsoft.graph.sitePage/webParts/wp-1", patch.Path)
	assert.Equal(t, "https://new/x", gjson.Get(patch.Body, "data.properties.link").String())
	assert.Equal(t, "Hero", gjson.Get(patch.Body, "data.title").String())
	assert.False(t, strings.Contains(patch.Body, "@odata.context"))
	assert.False(t, gjson.Get(patch.Body, "innerHtml").Exists())

	publish := calls[1]
	assert.Equal(t, http.MethodPost, publish.Method)
	assert.Equal(t, "/sites/site-a/pages/page-1/microsoft.graph.sitePage/publish", publish.Path)
}

func TestClient_WriteRecord_PatchFailureSkipsPublish(t *testing.T) {
	// Arrange
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})
	client, _ := newTestClient(t, handler, Config{PublishAfterWrite: true})
	rec := records.Record{
		Key:    records.Key{ContainerID: "s", ParentID: "p", RecordID: "w"},
		Fields: map[string]string{records.FieldProperties: `{}`},
	}

	// Act
	err := client.WriteRecord(context.Background(), rec)

	// Assert
	assert.ErrorIs(t, err, records.ErrRemoteFailure)
	assert.Equal(t, 1, calls)
}

func TestBuildWebPartPatch(t *testing.T) {
	tests := []struct {
		name    string
		rec     records.Record
		check   func(t *testing.T, body string)
		wantErr bool
	}{
		{
			name: "text web part keeps innerHtml only",
			rec: records.Record{
				Fields: map[string]string{
					records.FieldProperties: "{}",
					records.FieldInnerHTML:  "<p>New</p>",
				},
				Raw: []byte(`{"id":"wp","innerHtml":"<p>Old</p>"}`),
			},
			check: func(t *testing.T, body string) {
				assert.Equal(t, "<p>New</p>", gjson.Get(body, "innerHtml").String())
				assert.False(t, gjson.Get(body, "data").Exists())
			},
		},
		{
			name: "html is not escaped",
			rec: records.Record{
				Fields: map[string]string{records.FieldProperties: `{"html":"<b>&</b>"}`},
			},
			check: func(t *testing.T, body string) {
				assert.Contains(t, body, "<b>&</b>")
			},
		},
		{
			name: "invalid structured text is rejected",
			rec: records.Record{
				Fields: map[string]string{records.FieldProperties: `{"a":`},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := buildWebPartPatch(tt.rec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, string(body))
		})
	}
}

func TestClient_Execute_GraphCall(t *testing.T) {
	// Arrange
	var got recordedRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = recordedRequest{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(w, map[string]string{"id": "item-1"})
	})
	client, _ := newTestClient(t, handler, Config{})
	call, err := requests.NewGraphCall("PATCH", "/sites/a/lists/b/items/1/fields?x=1", `{"Title":"New"}`)
	require.NoError(t, err)

	// Act
	data, err := client.Execute(context.Background(), call)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "item-1", gjson.GetBytes(data, "id").String())
	assert.Equal(t, recordedRequest{Method: http.MethodPatch, Path: "/sites/a/lists/b/items/1/fields?x=1", Body: `{"Title":"New"}`}, got)
}

func TestClient_Execute_DeleteWithoutContent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := newTestClient(t, handler, Config{})
	call, err := requests.NewGraphCall("DELETE", "/groups/1", "")
	require.NoError(t, err)

	data, err := client.Execute(context.Background(), call)

	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestClient_Execute_Failures(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"itemNotFound","message":"gone"}}`)
	})
	client, _ := newTestClient(t, handler, Config{})

	_, err := client.Execute(context.Background(), requests.WebInfo{})
	assert.ErrorIs(t, err, records.ErrInvalidArgument)

	call, _ := requests.NewGraphCall("GET", "/me", "")
	_, err = client.Execute(context.Background(), call)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "itemNotFound", remoteErr.Code)
}
