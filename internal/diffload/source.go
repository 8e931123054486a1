package diffload

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Source supplies the file list of a comparison and the raw line content of
// each side. A path present on only one side reads as nil lines there.
type Source interface {
	ListFiles() ([]string, error)
	ReadPair(path string) (before, after []string, err error)
}

// DirSource compares two directory trees. Paths are relative to the roots
// and the file list is the sorted union of both sides.
type DirSource struct {
	BeforeRoot string
	AfterRoot  string
}

// NewDirSource validates both roots and returns a directory-pair source.
func NewDirSource(beforeRoot, afterRoot string) (*DirSource, error) {
	for _, root := range []string{beforeRoot, afterRoot} {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", root)
		}
	}
	return &DirSource{BeforeRoot: beforeRoot, AfterRoot: afterRoot}, nil
}

func (s *DirSource) ListFiles() ([]string, error) {
	union := make(map[string]struct{})
	for _, root := range []string{s.BeforeRoot, s.AfterRoot} {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			union[filepath.ToSlash(rel)] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	paths := make([]string, 0, len(union))
	for p := range union {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DirSource) ReadPair(path string) ([]string, []string, error) {
	before, err := readSide(filepath.Join(s.BeforeRoot, filepath.FromSlash(path)))
	if err != nil {
		return nil, nil, err
	}
	after, err := readSide(filepath.Join(s.AfterRoot, filepath.FromSlash(path)))
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// readSide treats a missing file as an empty side so added and deleted files
// still diff cleanly.
func readSide(p string) ([]string, error) {
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return SplitLines(string(data)), nil
}

// FilePairSource compares exactly two files; the list is a single synthetic
// entry named after the after side.
type FilePairSource struct {
	BeforePath string
	AfterPath  string
}

func NewFilePairSource(beforePath, afterPath string) (*FilePairSource, error) {
	for _, p := range []string{beforePath, afterPath} {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
	}
	return &FilePairSource{BeforePath: beforePath, AfterPath: afterPath}, nil
}

func (s *FilePairSource) ListFiles() ([]string, error) {
	return []string{filepath.Base(s.AfterPath)}, nil
}

func (s *FilePairSource) ReadPair(string) ([]string, []string, error) {
	before, err := readSide(s.BeforePath)
	if err != nil {
		return nil, nil, err
	}
	after, err := readSide(s.AfterPath)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}
