// Package util - File helpers for the command line tools.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageExtensions are the file extensions LoadImageFiles picks up, lower case.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from names like "frame-0042.jpg", or -1.
	Frame int
}

// Read returns the raw bytes of the file.
func (f ImageFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", f.Path)
	}
	return data, nil
}

// IsImageFile reports whether path has one of the ImageExtensions, ignoring case.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadImageFiles lists the image files in a directory, without descending into
// subdirectories.
//
// Files named after frames ("frame-12.jpg" or "12.png") come first in frame order; the rest
// follow sorted by name.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files found.
//   - error: Error if the directory cannot be read.
func LoadImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error listing %s", dir)
	}

	var images []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		images = append(images, ImageFile{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0 && a.Frame != b.Frame:
			return a.Frame < b.Frame
		case (a.Frame >= 0) != (b.Frame >= 0):
			return a.Frame >= 0
		default:
			return a.Path < b.Path
		}
	})

	return images, nil
}

func frameNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.TrimPrefix(base, "frame-")
	n, err := strconv.Atoi(base)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
