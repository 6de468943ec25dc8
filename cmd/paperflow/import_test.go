// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/pkg/types"
)

func TestReportImport(t *testing.T) {
	record := types.PaperRecord{ID: "2301.07041", Title: "Attention Is All You Need"}
	filed := &pipeline.ImportResult{
		Record: record,
		File:   pipeline.FileResult{ItemKey: "ABCD1234", CollectionKey: "COLL"},
	}
	noteErr := pipeline.AtStage(pipeline.StageVault, errors.New("disk full"))

	tests := []struct {
		name    string
		res     *pipeline.ImportResult
		err     error
		printed bool
		success bool
	}{
		{name: "success", res: filed, printed: true, success: true},
		{name: "note failed after filing", res: filed, err: noteErr, printed: true},
		{name: "filing failed", err: errors.New("zotero down")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := reportImport(&buf, record, tc.res, tc.err)
			assert.Equal(t, tc.err, err)

			if !tc.printed {
				assert.Empty(t, buf.String())
				return
			}
			var out map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
			assert.Equal(t, tc.success, out["success"])
			assert.Equal(t, "2301.07041", out["arxiv_id"])
			zot, ok := out["zotero"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "ABCD1234", zot["item_key"])
			if tc.err != nil {
				assert.Equal(t, "vault: disk full", out["error"])
			} else {
				assert.NotContains(t, out, "error")
			}
		})
	}
}
