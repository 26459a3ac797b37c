package driver

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles returns the .java files under root, sorted, without those
// matching an exclude pattern. A root that is a file is returned as is.
//
// Patterns use path.Match syntax on slash paths relative to root, plus `**`
// as a whole segment for any number of directories.
func ListFiles(root string, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			rel = filepath.Base(p)
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p != root && Excluded(rel+"/", exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ".java") && !Excluded(rel, exclude) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Excluded reports whether rel matches any pattern. A directory is passed
// with a trailing slash so `gen/**` prunes it as a whole.
func Excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if matchGlob(p, rel) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pat[0], name[0]); err != nil || !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	// "dir/" оставляет пустой хвост
	return len(name) == 0 || (len(name) == 1 && name[0] == "")
}
