package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"spoadmin/domain/contracts"
	"spoadmin/domain/jsonedit"
	"spoadmin/domain/records"
)

const odataContextSuffix = "@odata.context"

type siteJSON struct {
	ID          string `json:"id"`
	WebURL      string `json:"webUrl"`
	DisplayName string `json:"displayName"`
}

type pageJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
	Title  string `json:"title"`
}

// ListSites searches sites visible to the application.
func (c *Client) ListSites(ctx context.Context, search string) ([]contracts.Site, error) {
	raw, err := c.getCollection(ctx, "/sites?search="+url.QueryEscape(search))
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sites := make([]contracts.Site, 0, len(raw))
	for _, r := range raw {
		var s siteJSON
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, fmt.Errorf("%w: decode site: %w", records.ErrRemoteFailure, err)
		}
		sites = append(sites, contracts.Site{ID: s.ID, URL: s.WebURL, DisplayName: s.DisplayName})
	}
	return sites, nil
}

// FetchRecords loads every web part of every modern page of the given sites. Sites are
// fetched concurrently up to FetchConcurrency; the first failure aborts the whole fetch.
func (c *Client) FetchRecords(ctx context.Context, siteIDs []string) ([]records.Record, error) {
	perSite := make([][]records.Record, len(siteIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchConcurrency)
	for i, siteID := range siteIDs {
		g.Go(func() error {
			recs, err := c.fetchSite(gctx, siteID)
			if err != nil {
				return fmt.Errorf("site %s: %w", siteID, err)
			}
			perSite[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []records.Record
	for _, recs := range perSite {
		all = append(all, recs...)
	}
	return all, nil
}

func (c *Client) fetchSite(ctx context.Context, siteID string) ([]records.Record, error) {
	sitePath := "/sites/" + url.PathEscape(siteID)
	rawPages, err := c.getCollection(ctx, sitePath+"/pages/microsoft.graph.sitePage?$expand=canvasLayout")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	var out []records.Record
	for _, rp := range rawPages {
		var page pageJSON
		if err := json.Unmarshal(rp, &page); err != nil {
			return nil, fmt.Errorf("%w: decode page: %w", records.ErrRemoteFailure, err)
		}
		rawParts, err := c.getCollection(ctx, pagePath(siteID, page.ID)+"/webParts")
		if err != nil {
			return nil, fmt.Errorf("list web parts of page %s: %w", page.ID, err)
		}
		for _, part := range rawParts {
			out = append(out, webPartRecord(siteID, page, part))
		}
	}
	c.logger.Graph("Fetched site web parts", "site_id", siteID, "pages", len(rawPages), "webparts", len(out))
	return out, nil
}

func pagePath(siteID, pageID string) string {
	return "/sites/" + url.PathEscape(siteID) + "/pages/" + url.PathEscape(pageID) + "/microsoft.graph.sitePage"
}

// webPartRecord maps one Graph web part to a record. Structured fields are kept as JSON text.
func webPartRecord(siteID string, page pageJSON, raw json.RawMessage) records.Record {
	doc := gjson.ParseBytes(raw)

	structured := func(name string) string {
		if v := doc.Get("data." + name); v.Exists() && v.Type != gjson.Null {
			return v.Raw
		}
		if v := doc.Get(name); v.Exists() && v.Type != gjson.Null {
			return v.Raw
		}
		return "{}"
	}

	title := doc.Get("data.title").String()
	if title == "" {
		title = doc.Get("webPartType").String()
	}

	return records.Record{
		Key: records.Key{
			ContainerID: siteID,
			ParentID:    page.ID,
			RecordID:    doc.Get("id").String(),
		},
		Meta: records.Metadata{
			Title:    title,
			Type:     doc.Get("webPartType").String(),
			PageURL:  page.WebURL,
			PageName: page.Name,
		},
		Fields: map[string]string{
			records.FieldProperties:             structured(records.FieldProperties),
			records.FieldServerProcessedContent: structured(records.FieldServerProcessedContent),
			records.FieldInnerHTML:              doc.Get("innerHtml").String(),
		},
		Raw: append([]byte(nil), raw...),
	}
}

// WriteRecord patches one web part and, when configured, republishes its page.
func (c *Client) WriteRecord(ctx context.Context, rec records.Record) error {
	body, err := buildWebPartPatch(rec)
	if err != nil {
		return err
	}

	page := pagePath(rec.Key.ContainerID, rec.Key.ParentID)
	if _, err := c.do(ctx, http.MethodPatch, page+"/webParts/"+url.PathEscape(rec.Key.RecordID), body); err != nil {
		return fmt.Errorf("update web part: %w", err)
	}
	if c.cfg.PublishAfterWrite {
		if _, err := c.do(ctx, http.MethodPost, page+"/publish", nil); err != nil {
			return fmt.Errorf("publish page: %w", err)
		}
	}
	return nil
}

// buildWebPartPatch starts from the fetched web part, swaps in the edited fields and drops
// OData context annotations Graph refuses on update.
func buildWebPartPatch(rec records.Record) ([]byte, error) {
	raw := rec.Raw
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	doc := gjson.ParseBytes(raw)
	hasInnerHTML := doc.Get("innerHtml").Exists()
	setData := doc.Get("data").Exists() || !hasInnerHTML

	out := append([]byte(nil), raw...)
	var err error
	if setData {
		for _, field := range []string{records.FieldProperties, records.FieldServerProcessedContent} {
			text, ok := rec.Fields[field]
			if !ok || text == "" {
				continue
			}
			if !gjson.Valid(text) {
				return nil, &jsonedit.ParseError{Field: field, Err: fmt.Errorf("not valid JSON")}
			}
			if out, err = sjson.SetRawBytes(out, "data."+field, []byte(text)); err != nil {
				return nil, fmt.Errorf("set %s: %w", field, err)
			}
		}
	}
	if html, ok := rec.Fields[records.FieldInnerHTML]; ok && (hasInnerHTML || html != "") {
		if out, err = sjson.SetBytes(out, records.FieldInnerHTML, html); err != nil {
			return nil, fmt.Errorf("set innerHtml: %w", err)
		}
	}

	v, err := jsonedit.Decode(string(out))
	if err != nil {
		return nil, err
	}
	encoded, err := jsonedit.Encode(jsonedit.StripAnnotations(v, odataContextSuffix))
	if err != nil {
		return nil, err
	}
	return []byte(encoded), nil
}
