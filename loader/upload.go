package loader

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/krira-ai/ragcore"
)

var datasetTypeExt = map[SourceType]string{
	SourceCSV:  ".csv",
	SourceJSON: ".json",
	SourcePDF:  ".pdf",
}

// MaterializeInline decodes base64-encoded file content into a temp
// file under the loader's upload root, with an extension chosen from
// datasetType. The caller is responsible for removing the returned
// path once processing completes.
func (l *Loader) MaterializeInline(datasetType SourceType, content string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil || len(raw) == 0 {
		return "", ragcore.NewError(ragcore.KindValidation, "invalid or empty base64 file content")
	}

	ext := datasetTypeExt[SourceType(datasetType)]
	if ext == "" {
		ext = ".dat"
	}

	if err := os.MkdirAll(l.uploadRoot, 0o755); err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to prepare upload root", err)
	}

	tmp, err := os.CreateTemp(l.uploadRoot, fmt.Sprintf("upload-*%s", ext))
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to create temp file", err)
	}
	defer tmp.Close()

	if _, err := tmp.Write(raw); err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to write temp file", err)
	}

	abs, err := filepath.Abs(tmp.Name())
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve temp file path", err)
	}
	return abs, nil
}
