package Transformer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles 递归查找指定扩展名的文件（不区分大小写），按路径排序
func FindFiles(root string, exts ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, ext := range exts {
			if strings.HasSuffix(name, "."+strings.ToLower(strings.TrimPrefix(ext, "."))) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
