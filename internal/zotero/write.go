// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WriteStatus tags the outcome of one object in a write request.
type WriteStatus int

const (
	WriteSucceeded WriteStatus = iota + 1
	WriteFailed
)

// WriteResult is the decoded outcome of the first object of a Zotero write
// request. On success Key (and Version) identify the object; on failure
// Code and Message carry Zotero's own error.
type WriteResult struct {
	Status  WriteStatus
	Key     string
	Version int
	Code    int
	Message string
}

// Succeeded reports whether the object was written.
func (r WriteResult) Succeeded() bool { return r.Status == WriteSucceeded }

// writeResponse mirrors the multi-object write response:
//
//	{"successful": {"0": {...}}, "success": {"0": "KEY"},
//	 "unchanged": {"1": "KEY"}, "failed": {"2": {"code": 400, "message": "..."}}}
type writeResponse struct {
	Successful map[string]writtenObject `json:"successful"`
	Success    map[string]string        `json:"success"`
	Unchanged  map[string]string        `json:"unchanged"`
	Failed     map[string]writeFailure  `json:"failed"`
}

type writtenObject struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
}

type writeFailure struct {
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var errEmptyWriteResponse = errors.New("write response has no result for the submitted object")

// decodeWriteResult decodes the outcome of the object at index "0".
func decodeWriteResult(body []byte) (WriteResult, error) {
	var wr writeResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return WriteResult{}, fmt.Errorf("decoding write response: %w", err)
	}

	const idx = "0"
	if obj, ok := wr.Successful[idx]; ok && obj.Key != "" {
		return WriteResult{Status: WriteSucceeded, Key: obj.Key, Version: obj.Version}, nil
	}
	if key, ok := wr.Success[idx]; ok && key != "" {
		return WriteResult{Status: WriteSucceeded, Key: key}, nil
	}
	if key, ok := wr.Unchanged[idx]; ok && key != "" {
		return WriteResult{Status: WriteSucceeded, Key: key}, nil
	}
	if f, ok := wr.Failed[idx]; ok {
		msg := f.Message
		if msg == "" {
			msg = "unknown error"
		}
		return WriteResult{Status: WriteFailed, Code: f.Code, Message: msg}, nil
	}
	return WriteResult{}, errEmptyWriteResponse
}
