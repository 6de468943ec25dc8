// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

const pdfContentType = "application/pdf"

// AttachMode records how a PDF ended up attached.
type AttachMode string

const (
	AttachNone     AttachMode = ""
	AttachImported AttachMode = "imported_file"
	AttachLinked   AttachMode = "linked_file"
)

// AttachResult reports the outcome of AttachPDF. Attached is false only
// when every strategy failed; Message then explains why. When the linked
// fallback was used, Message carries the upload failure.
type AttachResult struct {
	Attached      bool       `json:"attached"`
	Mode          AttachMode `json:"mode,omitempty"`
	AttachmentKey string     `json:"attachment_key,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// AttachPDF attaches the local PDF at pdfPath to the item parentKey. It
// first uploads the file as an imported attachment; if any step of the
// upload fails it creates a linked-file attachment pointing at pdfPath
// instead. Failures never propagate as errors: the caller's item stays
// valid whatever happens here.
func (c *Client) AttachPDF(ctx context.Context, parentKey, pdfPath string) AttachResult {
	info, err := os.Stat(pdfPath)
	if err != nil || info.IsDir() {
		return AttachResult{Message: fmt.Sprintf("PDF file not found: %s", pdfPath)}
	}

	key, uploadErr := c.uploadImported(ctx, parentKey, pdfPath, info)
	if uploadErr == nil {
		c.log.Debug("uploaded pdf", "item_key", parentKey, "attachment", key)
		return AttachResult{Attached: true, Mode: AttachImported, AttachmentKey: key}
	}
	c.log.Warn("pdf upload failed, creating linked file attachment", "item_key", parentKey, "error", uploadErr)

	key, linkErr := c.createLinked(ctx, parentKey, pdfPath)
	if linkErr != nil {
		return AttachResult{Message: fmt.Sprintf("PDF attachment failed: %v; %v", uploadErr, linkErr)}
	}
	return AttachResult{
		Attached:      true,
		Mode:          AttachLinked,
		AttachmentKey: key,
		Message:       fmt.Sprintf("upload failed, linked local file instead: %v", uploadErr),
	}
}

// uploadAuth is the response to an upload authorization request.
type uploadAuth struct {
	Exists      int    `json:"exists"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
	UploadKey   string `json:"uploadKey"`
}

// uploadImported runs the four-step file upload: create the attachment
// item, authorize the upload, send the file, register the upload. A
// half-created attachment item is deleted on failure.
func (c *Client) uploadImported(ctx context.Context, parentKey, pdfPath string, info os.FileInfo) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pdfPath, err)
	}
	sum := md5.Sum(data)
	filename := filepath.Base(pdfPath)

	res, err := c.write(ctx, "create attachment", "/items", []any{ItemData{
		ItemType:    "attachment",
		LinkMode:    string(AttachImported),
		Title:       filename,
		ContentType: pdfContentType,
		Filename:    filename,
		ParentItem:  parentKey,
	}})
	if err != nil {
		return "", err
	}

	if err := c.uploadFile(ctx, res.Key, filename, data, hex.EncodeToString(sum[:]), info.ModTime().UnixMilli()); err != nil {
		if delErr := c.deleteItem(ctx, res.Key, res.Version); delErr != nil {
			c.log.Debug("could not remove incomplete attachment", "attachment", res.Key, "error", delErr)
		}
		return "", err
	}
	return res.Key, nil
}

func (c *Client) uploadFile(ctx context.Context, attachmentKey, filename string, data []byte, md5sum string, mtime int64) error {
	filePath := "/items/" + url.PathEscape(attachmentKey) + "/file"
	noMatch := map[string]string{"If-None-Match": "*"}

	form := url.Values{}
	form.Set("md5", md5sum)
	form.Set("filename", filename)
	form.Set("filesize", strconv.Itoa(len(data)))
	form.Set("mtime", strconv.FormatInt(mtime, 10))

	var auth uploadAuth
	if _, err := c.sendJSON(ctx, request{
		op:          "authorize upload",
		method:      http.MethodPost,
		path:        filePath,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		header:      noMatch,
	}, &auth); err != nil {
		return err
	}
	if auth.Exists == 1 {
		return nil
	}
	if auth.URL == "" || auth.UploadKey == "" {
		return fmt.Errorf("upload authorization missing url or uploadKey")
	}

	var body bytes.Buffer
	body.Grow(len(auth.Prefix) + len(data) + len(auth.Suffix))
	body.WriteString(auth.Prefix)
	body.Write(data)
	body.WriteString(auth.Suffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, auth.URL, bytes.NewReader(body.Bytes()))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", auth.ContentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("uploading file: HTTP %d", resp.StatusCode)
	}

	reg := url.Values{}
	reg.Set("upload", auth.UploadKey)
	_, err = c.sendJSON(ctx, request{
		op:          "register upload",
		method:      http.MethodPost,
		path:        filePath,
		body:        []byte(reg.Encode()),
		contentType: "application/x-www-form-urlencoded",
		header:      noMatch,
	}, nil)
	return err
}

// createLinked creates a linked-file attachment pointing at pdfPath.
func (c *Client) createLinked(ctx context.Context, parentKey, pdfPath string) (string, error) {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		abs = pdfPath
	}
	res, err := c.write(ctx, "create linked attachment", "/items", []any{ItemData{
		ItemType:    "attachment",
		LinkMode:    string(AttachLinked),
		Title:       filepath.Base(pdfPath),
		Path:        abs,
		ContentType: pdfContentType,
		ParentItem:  parentKey,
	}})
	if err != nil {
		return "", err
	}
	return res.Key, nil
}
