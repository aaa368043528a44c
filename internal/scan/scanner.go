package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// ScanRoot finds every *.jsonl snapshot under root. A missing root yields
// no files and no error. Hidden files and directories are skipped.
func ScanRoot(root string) ([]FileInfo, error) {
	if root == "" {
		return nil, nil
	}
	files, err := scanSnapshots(root)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func scanSnapshots(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable dirs
		}
		hidden := path != root && strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}
