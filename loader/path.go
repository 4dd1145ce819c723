package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/krira-ai/ragcore"
)

// resolveFilePath resolves a relative or absolute dataset path against
// the loader's upload root and fails closed on any path that would
// escape it.
func (l *Loader) resolveFilePath(filePath string) (string, error) {
	if filePath == "" {
		return "", ragcore.NewError(ragcore.KindNotFound, "file path is required for file uploads")
	}

	root, err := filepath.Abs(l.uploadRoot)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve upload root", err)
	}

	candidate := filePath
	if !filepath.IsAbs(candidate) {
		rootBase := filepath.Base(root)
		parts := strings.Split(filepath.ToSlash(candidate), "/")
		if len(parts) > 0 && parts[0] == rootBase {
			candidate = filepath.Join(append([]string{root}, parts[1:]...)...)
		} else {
			candidate = filepath.Join(root, candidate)
		}
	}

	resolved, err := filepath.Abs(candidate)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to resolve dataset path", err)
	}

	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", ragcore.NewError(ragcore.KindForbidden, "access to the specified file path is not permitted")
	}

	if _, err := os.Stat(resolved); err != nil {
		return "", ragcore.NewError(ragcore.KindNotFound, "dataset file not found at "+resolved)
	}

	return resolved, nil
}
