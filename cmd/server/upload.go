package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
)

// saveUpload writes the multipart file under field to a fresh temp file and
// returns its path. The caller owns the file and must remove it.
func (a *App) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", errors.NewValidationError(fmt.Sprintf("No %s file provided", field), err.Error())
	}
	if fh.Size == 0 {
		return "", errors.NewValidationError(fmt.Sprintf("Empty %s file", field))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if len(ext) > 8 {
		ext = ""
	}
	path := filepath.Join(a.tempDir(), fmt.Sprintf("expressly-%s-%s%s", field, uuid.NewString(), ext))

	if err := c.SaveUploadedFile(fh, path); err != nil {
		os.Remove(path)
		return "", errors.NewInternalError("failed to store upload", err)
	}
	return path, nil
}

func (a *App) tempDir() string {
	if a.cfg.TempDir != "" {
		return a.cfg.TempDir
	}
	return os.TempDir()
}
