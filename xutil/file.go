package xutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExist 文件是否存在
func FileExist(filePath string) bool {
	stat, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !stat.IsDir()
}

// DirExist 目录是否存在
func DirExist(filePath string) bool {
	stat, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return stat.IsDir()
}

// ListFilesWithExt 按文件名排序列出目录下指定后缀的文件（不递归），后缀大小写不敏感
func ListFilesWithExt(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
