// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// ErrEmptyCollectionName is returned for a blank collection name.
var ErrEmptyCollectionName = errors.New("collection name is empty")

// Collection is a named folder in the library.
type Collection struct {
	Key       string
	Name      string
	ParentKey string // empty for top-level collections
}

type collectionEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Name string `json:"name"`
		// parentCollection is false for top-level collections, else a key.
		ParentCollection json.RawMessage `json:"parentCollection"`
	} `json:"data"`
}

func (e collectionEnvelope) toCollection() Collection {
	col := Collection{Key: e.Key, Name: e.Data.Name}
	var parent string
	if json.Unmarshal(e.Data.ParentCollection, &parent) == nil {
		col.ParentKey = parent
	}
	return col
}

// ListCollections returns every collection in the library, following
// pagination until Total-Results entries have been read.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	out := []Collection{}
	for start := 0; ; {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageLimit))
		q.Set("start", strconv.Itoa(start))

		var page []collectionEnvelope
		hdr, err := c.sendJSON(ctx, request{
			op:     "list collections",
			method: http.MethodGet,
			path:   "/collections",
			query:  q,
		}, &page)
		if err != nil {
			return nil, err
		}
		for _, e := range page {
			out = append(out, e.toCollection())
		}

		start += len(page)
		total, err := strconv.Atoi(hdr.Get("Total-Results"))
		if err != nil {
			total = -1
		}
		if len(page) == 0 || (total >= 0 && start >= total) || (total < 0 && len(page) < pageLimit) {
			return out, nil
		}
	}
}

// FindOrCreateCollection returns the key of the collection named name
// (exact, case-sensitive match), creating it when none exists. Keys are
// cached per Client; a cached name makes no network call. The cache is
// never invalidated.
func (c *Client) FindOrCreateCollection(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyCollectionName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.collections[name]; ok {
		return key, nil
	}

	cols, err := c.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	for _, col := range cols {
		if col.Name == name {
			c.collections[name] = col.Key
			return col.Key, nil
		}
	}

	res, err := c.write(ctx, "create collection", "/collections", []any{map[string]string{"name": name}})
	if err != nil {
		return "", err
	}
	c.log.Info("created zotero collection", "name", name, "collection_key", res.Key)
	c.collections[name] = res.Key
	return res.Key, nil
}
