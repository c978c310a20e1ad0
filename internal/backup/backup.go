package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"oakwood/internal/config"
)

const (
	filenamePrefix  = "oakwood-backup-"
	filenameSuffix  = ".tar.gz"
	timestampLayout = "2006-01-02-150405"

	databaseArcname = "oakwood.db"
	coversArcname   = "covers"
)

// Info describes one backup archive in the backups directory.
type Info struct {
	Path      string
	Filename  string
	SizeBytes int64
	Created   time.Time
}

// ProgressFunc receives status messages while an archive is written or
// restored.
type ProgressFunc func(message string)

// Manager creates and restores catalogue backups for one configuration.
type Manager struct {
	dbPath     string
	coversDir  string
	backupsDir string
	now        func() time.Time
}

// NewManager builds a manager from the resolved configuration paths.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		dbPath:     cfg.DatabasePath(),
		coversDir:  cfg.CoversDir,
		backupsDir: cfg.BackupsDir(),
		now:        time.Now,
	}
}

// Dir returns the backups directory, creating it if needed.
func (m *Manager) Dir() (string, error) {
	if err := os.MkdirAll(m.backupsDir, 0o755); err != nil {
		return "", fmt.Errorf("create backups directory: %w", err)
	}
	return m.backupsDir, nil
}

// List returns existing backups, newest first. Files whose names do not
// carry a parseable timestamp are ignored.
func (m *Manager) List() ([]Info, error) {
	dir, err := m.Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filenamePrefix) || !strings.HasSuffix(name, filenameSuffix) {
			continue
		}
		stem := strings.TrimSuffix(strings.TrimPrefix(name, filenamePrefix), filenameSuffix)
		created, err := time.Parse(timestampLayout, stem)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(dir, name),
			Filename:  name,
			SizeBytes: info.Size(),
			Created:   created,
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

// Create writes a timestamped tar.gz archive containing the database and,
// when configured, the covers directory.
func (m *Manager) Create(onProgress ProgressFunc) (Info, error) {
	dir, err := m.Dir()
	if err != nil {
		return Info{}, err
	}
	timestamp := m.now().Format(timestampLayout)
	filename := filenamePrefix + timestamp + filenameSuffix
	backupPath := filepath.Join(dir, filename)

	progress(onProgress, fmt.Sprintf("Creating backup %s...", filename))

	file, err := os.Create(backupPath)
	if err != nil {
		return Info{}, fmt.Errorf("create backup archive: %w", err)
	}
	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)

	writeErr := func() error {
		progress(onProgress, fmt.Sprintf("Adding database (%s)...", filepath.Base(m.dbPath)))
		if err := addFile(tw, m.dbPath, databaseArcname); err != nil {
			return err
		}
		if m.coversDir != "" {
			if info, err := os.Stat(m.coversDir); err == nil && info.IsDir() {
				progress(onProgress, "Adding covers directory...")
				if err := addDir(tw, m.coversDir, coversArcname); err != nil {
					return err
				}
			}
		}
		return nil
	}()

	if err := closeAll(writeErr, tw, gz, file); err != nil {
		_ = os.Remove(backupPath)
		return Info{}, err
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return Info{}, fmt.Errorf("stat backup archive: %w", err)
	}
	created, _ := time.Parse(timestampLayout, timestamp)
	info := Info{
		Path:      backupPath,
		Filename:  filename,
		SizeBytes: stat.Size(),
		Created:   created,
	}
	progress(onProgress, fmt.Sprintf("Backup complete: %s (%s)", filename, FormatSize(info.SizeBytes)))
	return info, nil
}

// Restore extracts an archive over the current database and covers. The
// current database is copied aside with a .pre-restore suffix first, so a
// bad restore never destroys the only copy. Callers must close any open
// store before restoring and reopen afterwards.
func (m *Manager) Restore(backupPath string, onProgress ProgressFunc) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup not found: %w", err)
	}

	progress(onProgress, "Extracting backup to temporary directory...")
	tmpDir, err := os.MkdirTemp("", "oakwood-restore-")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := extractArchive(backupPath, tmpDir); err != nil {
		return err
	}

	extractedDB := filepath.Join(tmpDir, databaseArcname)
	if _, err := os.Stat(extractedDB); err != nil {
		return errors.New("backup archive does not contain oakwood.db")
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		preRestore := m.dbPath + ".pre-restore"
		progress(onProgress, fmt.Sprintf("Saving current database as %s...", filepath.Base(preRestore)))
		if err := copyFile(m.dbPath, preRestore); err != nil {
			return fmt.Errorf("save current database: %w", err)
		}
	}

	progress(onProgress, "Restoring database...")
	if err := os.MkdirAll(filepath.Dir(m.dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := copyFile(extractedDB, m.dbPath); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}

	extractedCovers := filepath.Join(tmpDir, coversArcname)
	if m.coversDir != "" {
		if info, err := os.Stat(extractedCovers); err == nil && info.IsDir() {
			progress(onProgress, "Restoring covers directory...")
			if err := os.RemoveAll(m.coversDir); err != nil {
				return fmt.Errorf("clear covers directory: %w", err)
			}
			if err := copyTree(extractedCovers, m.coversDir); err != nil {
				return fmt.Errorf("restore covers: %w", err)
			}
		}
	}

	progress(onProgress, "Restore complete.")
	return nil
}

// FormatSize renders a byte count for display.
func FormatSize(sizeBytes int64) string {
	return humanize.Bytes(uint64(sizeBytes))
}

func progress(onProgress ProgressFunc, message string) {
	if onProgress != nil {
		onProgress(message)
	}
}

func addFile(tw *tar.Writer, path, arcname string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("build header for %s: %w", path, err)
	}
	header.Name = arcname
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header for %s: %w", arcname, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("archive %s: %w", arcname, err)
	}
	return nil
}

func addDir(tw *tar.Writer, dir, arcname string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := arcname
		if rel != "." {
			name = filepath.Join(arcname, rel)
		}
		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = name + "/"
			return tw.WriteHeader(header)
		}
		return addFile(tw, path, name)
	})
}

func extractArchive(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open backup archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("read backup archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}

		// Reject absolute paths and traversal outside the destination.
		name := filepath.Clean(header.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return fmt.Errorf("archive entry %q escapes destination", header.Name)
		}
		target := filepath.Join(destDir, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create directory for %s: %w", name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %s: %w", name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close %s: %w", name, err)
			}
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func closeAll(writeErr error, tw *tar.Writer, gz *gzip.Writer, file *os.File) error {
	if err := tw.Close(); writeErr == nil && err != nil {
		writeErr = fmt.Errorf("finalize archive: %w", err)
	}
	if err := gz.Close(); writeErr == nil && err != nil {
		writeErr = fmt.Errorf("finalize compression: %w", err)
	}
	if err := file.Close(); writeErr == nil && err != nil {
		writeErr = fmt.Errorf("close archive file: %w", err)
	}
	return writeErr
}
