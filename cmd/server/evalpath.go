package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/krira-ai/ragcore"
)

// resolveEvaluationPath resolves a caller-supplied evaluation CSV
// path against the evaluation root, failing closed on any path that
// would escape it. Mirrors loader's upload-root path-safety guard
// (C2) for the evaluation directory allow-list (C9).
func resolveEvaluationPath(evaluationRoot, csvPath string) (string, error) {
	if csvPath == "" {
		return "", ragcore.NewError(ragcore.KindValidation, "evaluation CSV path or content must be provided")
	}

	root, err := filepath.Abs(evaluationRoot)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve evaluation root", err)
	}

	candidate := csvPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	resolved, err := filepath.Abs(candidate)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve evaluation CSV path", err)
	}

	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", ragcore.NewError(ragcore.KindForbidden, "evaluation CSV must reside within the allowed directory")
	}
	if strings.ToLower(filepath.Ext(resolved)) != ".csv" {
		return "", ragcore.NewError(ragcore.KindValidation, "evaluation file must be a CSV")
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", ragcore.NewError(ragcore.KindNotFound, "evaluation CSV file was not found")
	}
	return resolved, nil
}

// materializeEvaluationContent decodes base64 CSV content into a temp
// file under the evaluation root. The caller removes the file once
// processing completes.
func materializeEvaluationContent(evaluationRoot, content, originalFilename string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil || len(strings.TrimSpace(string(decoded))) == 0 {
		return "", ragcore.NewError(ragcore.KindValidation, "evaluation CSV content is invalid or empty; provide base64 content")
	}

	suffix := filepath.Ext(originalFilename)
	if suffix == "" {
		suffix = ".csv"
	}

	if err := os.MkdirAll(evaluationRoot, 0o755); err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to prepare evaluation workspace", err)
	}

	tmp, err := os.CreateTemp(evaluationRoot, fmt.Sprintf("evaluation-*%s", suffix))
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to create evaluation temp file", err)
	}
	defer tmp.Close()

	if _, err := tmp.Write(decoded); err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to write evaluation temp file", err)
	}

	abs, err := filepath.Abs(tmp.Name())
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve evaluation temp file path", err)
	}
	return abs, nil
}
