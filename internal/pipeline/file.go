// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperflow/internal/acquire"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/internal/zotero"
	"github.com/pdiddy/paperflow/pkg/types"
)

// FileOptions configures Filer.File.
type FileOptions struct {
	Collection  string   // empty files the item outside any collection
	Tags        []string
	DOI         string
	SkipPDF     bool
	DownloadDir string
}

// FileResult reports what Filer.File did. Only the item key is guaranteed;
// the collection and PDF steps may have been skipped or failed.
type FileResult struct {
	ItemKey           string            `json:"item_key"`
	CollectionKey     string            `json:"collection_key"`
	CollectionWarning string            `json:"collection_warning,omitempty"`
	PDFPath           string            `json:"pdf_path,omitempty"`
	PDFPages          int               `json:"pdf_pages,omitempty"`
	PDFAttached       bool              `json:"pdf_attached"`
	PDFMode           zotero.AttachMode `json:"pdf_mode,omitempty"`
	PDFMessage        string            `json:"pdf_message,omitempty"`
}

// Filer files papers into a Zotero library.
type Filer struct {
	Papers  Papers
	Library Library
	Log     *logger.Logger
}

// File creates a Zotero item for record. A collection that cannot be
// found or created is logged and the item is created without it. Failing
// to create the item aborts. Downloading and attaching the PDF never fail
// the call; the outcome is reported in PDFAttached and PDFMessage.
func (f *Filer) File(ctx context.Context, record types.PaperRecord, opts FileOptions) (*FileResult, error) {
	log := logger.OrNop(f.Log)
	res := &FileResult{}

	if opts.Collection != "" {
		key, err := f.Library.FindOrCreateCollection(ctx, opts.Collection)
		if err != nil {
			log.Warn("could not find or create collection", "collection", opts.Collection, "error", err)
			res.CollectionWarning = fmt.Sprintf("collection %q unavailable: %v", opts.Collection, err)
		} else {
			res.CollectionKey = key
		}
	}

	itemKey, err := f.Library.CreatePaperItem(ctx, record, zotero.ItemOptions{
		CollectionKey: res.CollectionKey,
		Tags:          opts.Tags,
		DOI:           opts.DOI,
	})
	if err != nil {
		return nil, AtStage(StageZotero, fmt.Errorf("creating item: %w", err))
	}
	res.ItemKey = itemKey
	log.Info("created zotero item", "arxiv_id", record.ID, "item_key", itemKey)

	if opts.SkipPDF {
		res.PDFMessage = "PDF skipped"
		return res, nil
	}
	f.attachPDF(ctx, log, record, opts.DownloadDir, res)
	return res, nil
}

func (f *Filer) attachPDF(ctx context.Context, log *logger.Logger, record types.PaperRecord, dir string, res *FileResult) {
	if dir == "" {
		dir = "downloads"
	}
	path, err := f.Papers.DownloadPDF(ctx, record.ID, dir, "")
	if err != nil {
		log.Warn("pdf download failed", "arxiv_id", record.ID, "error", err)
		res.PDFMessage = fmt.Sprintf("PDF download failed: %v", err)
		return
	}
	res.PDFPath = path

	if pages, err := acquire.PageCount(path); err != nil {
		log.Warn("downloaded pdf could not be parsed", "path", path, "error", err)
	} else {
		res.PDFPages = pages
	}

	ar := f.Library.AttachPDF(ctx, res.ItemKey, path)
	res.PDFAttached = ar.Attached
	res.PDFMode = ar.Mode
	res.PDFMessage = ar.Message
	if !ar.Attached {
		log.Warn("pdf not attached", "item_key", res.ItemKey, "reason", ar.Message)
	}
}
