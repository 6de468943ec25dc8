// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	// PublicationTitle labels every filed arXiv paper.
	PublicationTitle = "arXiv preprint"

	searchLimit = 25
)

// Creator is one entry of an item's creator list. Single-field names are
// used because arXiv author names are not split.
type Creator struct {
	CreatorType string `json:"creatorType"`
	Name        string `json:"name,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

// Tag is one item tag.
type Tag struct {
	Tag string `json:"tag"`
}

// ItemData is the editable part of a Zotero item. Only the fields used for
// journal articles and PDF attachments are modeled.
type ItemData struct {
	Key              string    `json:"key,omitempty"`
	Version          int       `json:"version,omitempty"`
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title,omitempty"`
	AbstractNote     string    `json:"abstractNote,omitempty"`
	URL              string    `json:"url,omitempty"`
	Extra            string    `json:"extra,omitempty"`
	Date             string    `json:"date,omitempty"`
	PublicationTitle string    `json:"publicationTitle,omitempty"`
	DOI              string    `json:"DOI,omitempty"`
	Creators         []Creator `json:"creators,omitempty"`
	Collections      []string  `json:"collections,omitempty"`
	Tags             []Tag     `json:"tags,omitempty"`

	ParentItem  string `json:"parentItem,omitempty"`
	LinkMode    string `json:"linkMode,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Path        string `json:"path,omitempty"`
}

// Item is a library item as returned by read requests.
type Item struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Data    ItemData `json:"data"`
}

// ItemOptions carries the optional parts of a new paper item.
type ItemOptions struct {
	// CollectionKey files the item into a collection. Empty leaves it
	// unfiled.
	CollectionKey string

	// Tags are attached to the item.
	Tags []string

	// DOI overrides the record's DOI when set.
	DOI string
}

// paperItem maps a PaperRecord onto the journalArticle schema.
func paperItem(record types.PaperRecord, opts ItemOptions) ItemData {
	item := ItemData{
		ItemType:         "journalArticle",
		Title:            record.Title,
		AbstractNote:     record.Abstract,
		URL:              record.AbsURL(),
		Extra:            "arXiv:" + record.ID,
		Date:             record.PublishedDate(),
		PublicationTitle: PublicationTitle,
		DOI:              record.DOI,
		Creators:         make([]Creator, 0, len(record.Authors)),
		Tags:             make([]Tag, 0, len(opts.Tags)),
	}
	if opts.DOI != "" {
		item.DOI = opts.DOI
	}
	for _, a := range record.Authors {
		item.Creators = append(item.Creators, Creator{CreatorType: "author", Name: a})
	}
	if opts.CollectionKey != "" {
		item.Collections = []string{opts.CollectionKey}
	}
	for _, t := range opts.Tags {
		if t = strings.TrimSpace(t); t != "" {
			item.Tags = append(item.Tags, Tag{Tag: t})
		}
	}
	return item
}

// CreatePaperItem creates a journalArticle item for record and returns its
// key. A create that Zotero reports as failed is an errs.ErrRemoteRejected
// error carrying Zotero's message.
func (c *Client) CreatePaperItem(ctx context.Context, record types.PaperRecord, opts ItemOptions) (string, error) {
	if err := record.Validate(); err != nil {
		return "", err
	}
	res, err := c.write(ctx, "create item", "/items", []any{paperItem(record, opts)})
	if err != nil {
		return "", err
	}
	c.log.Debug("created zotero item", "item_key", res.Key, "arxiv_id", record.ID)
	return res.Key, nil
}

// GetItem returns the item with key, or nil, nil when it does not exist.
func (c *Client) GetItem(ctx context.Context, key string) (*Item, error) {
	var item Item
	_, err := c.sendJSON(ctx, request{
		op:     "get item",
		method: http.MethodGet,
		path:   "/items/" + url.PathEscape(key),
	}, &item)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchItems runs a quick search (title, creator, year) over the library's
// items. No match is an empty slice.
func (c *Client) SearchItems(ctx context.Context, query string) ([]Item, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))

	items := []Item{}
	if _, err := c.sendJSON(ctx, request{
		op:     "search items",
		method: http.MethodGet,
		path:   "/items",
		query:  q,
	}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// deleteItem removes an item. A positive version guards against concurrent
// edits; zero means the version is unknown and the header is left off, since
// the API would reject every delete against version 0.
func (c *Client) deleteItem(ctx context.Context, key string, version int) error {
	req := request{
		op:     "delete item",
		method: http.MethodDelete,
		path:   "/items/" + url.PathEscape(key),
	}
	if version > 0 {
		req.header = map[string]string{"If-Unmodified-Since-Version": strconv.Itoa(version)}
	}
	_, err := c.sendJSON(ctx, req, nil)
	return err
}

// isStatus reports whether err is a RemoteError with the given HTTP status.
func isStatus(err error, status int) bool {
	var re *errs.RemoteError
	return errors.As(err, &re) && re.StatusCode == status
}

// String renders an item for listings: "KEY  Title (date)".
func (it Item) String() string {
	s := fmt.Sprintf("%s  %s", it.Key, it.Data.Title)
	if it.Data.Date != "" {
		s += " (" + it.Data.Date + ")"
	}
	return s
}
