package storage

import (
	"os"
	"path/filepath"
)

// DiskUsage reports on-disk sizes of the database and index locations.
type DiskUsage struct {
	DatabaseBytes     int64 `json:"database_bytes"`
	VectorIndexBytes  int64 `json:"vector_index_bytes"`
	KeywordIndexBytes int64 `json:"keyword_index_bytes"`
}

// Total returns the sum of all sizes.
func (u DiskUsage) Total() int64 {
	return u.DatabaseBytes + u.VectorIndexBytes + u.KeywordIndexBytes
}

// MeasureDiskUsage measures the database file and both index directories.
// Missing locations count as zero.
func MeasureDiskUsage(dbPath, vectorDir, keywordDir string) (DiskUsage, error) {
	var u DiskUsage
	var err error
	if u.DatabaseBytes, err = DiskUsageBytes(dbPath); err != nil {
		return u, err
	}
	if u.VectorIndexBytes, err = DiskUsageBytes(vectorDir); err != nil {
		return u, err
	}
	if u.KeywordIndexBytes, err = DiskUsageBytes(keywordDir); err != nil {
		return u, err
	}
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; errors during walk are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
