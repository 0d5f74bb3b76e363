// Package backup produces timestamped zip archives of the project directory
// and optionally ships them to S3-compatible storage.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localhq/localservices/pkg/logger"
	"github.com/localhq/localservices/pkg/metrics"
)

const (
	archivePrefix = "local_services-backup-"
	// timestampLayout yields names like local_services-backup-20240131-154500.zip.
	timestampLayout = "20060102-150405"
)

// Top-level entries never included in an archive. Keeps archives small and
// prevents a backup from recursively archiving earlier backups.
var excludedTopLevel = map[string]struct{}{
	".venv":        {},
	"__pycache__":  {},
	".git":         {},
	"backup":       {},
	"backups":      {},
	"staticfiles":  {},
	"node_modules": {},
}

// Archiver creates zip archives of a source directory.
type Archiver struct {
	sourceDir string
	destDir   string
	now       func() time.Time
	log       *zap.Logger
}

// NewArchiver archives sourceDir into destDir (defaults to
// sourceDir/backup).
func NewArchiver(sourceDir, destDir string) *Archiver {
	if destDir == "" {
		destDir = filepath.Join(sourceDir, "backup")
	}
	return &Archiver{
		sourceDir: sourceDir,
		destDir:   destDir,
		now:       time.Now,
		log:       logger.WithModule("backup"),
	}
}

// Run creates one archive and returns its path. Repeated runs produce
// distinct files since the name carries a second-resolution timestamp. Any
// file error aborts the run and removes the partial archive.
func (a *Archiver) Run() (string, error) {
	path, err := a.run()
	if err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.BackupRuns.WithLabelValues("ok").Inc()
	return path, nil
}

func (a *Archiver) run() (string, error) {
	info, err := os.Stat(a.sourceDir)
	if err != nil {
		return "", fmt.Errorf("backup: source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("backup: source %q is not a directory", a.sourceDir)
	}

	if err := os.MkdirAll(a.destDir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create destination: %w", err)
	}

	name := archivePrefix + a.now().Format(timestampLayout) + ".zip"
	archivePath := filepath.Join(a.destDir, name)

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("backup: create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := a.addTree(zw)

	if closeErr := zw.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if closeErr := out.Close(); walkErr == nil {
		walkErr = closeErr
	}

	if walkErr != nil {
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("backup: %w", walkErr)
	}

	a.log.Info("archive created", zap.String("path", archivePath))
	return archivePath, nil
}

func (a *Archiver) addTree(zw *zip.Writer) error {
	absDest, err := filepath.Abs(a.destDir)
	if err != nil {
		return err
	}

	return filepath.WalkDir(a.sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(a.sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		topLevel := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if _, excluded := excludedTopLevel[topLevel]; excluded {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Never archive the destination even when it lives elsewhere
		// inside the tree.
		if abs, absErr := filepath.Abs(path); absErr == nil {
			if abs == absDest || strings.HasPrefix(abs, absDest+string(filepath.Separator)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return a.addFile(zw, path, filepath.ToSlash(rel))
	})
}

func (a *Archiver) addFile(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, in)
	return err
}
