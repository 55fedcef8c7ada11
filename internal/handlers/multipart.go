package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const maxUploadMemory = 32 << 20

// spoolFilePart saves the named multipart file part to a local temp file and
// returns its path. A missing part is not an error: empty path is returned
func spoolFilePart(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("can't read file part %q. Err: %w", field, err)
	}
	defer file.Close() // nolint:errcheck

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("can't create temp file. Err: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("can't spool file part %q. Err: %w", field, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("can't close temp file. Err: %w", err)
	}

	return tmp.Name(), nil
}
