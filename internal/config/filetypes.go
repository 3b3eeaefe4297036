package config

import (
	"fmt"
	"sort"
	"strings"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// FileTypeAny selects the union of every group.
const FileTypeAny = "any"

// fileTypeOrder fixes the order groups are unioned in for "any".
var fileTypeOrder = []string{"images", "documents", "code", "audio", "video"}

// FileTypes maps each group name to its extensions (lowercase, no dot).
var FileTypes = map[string][]string{
	"images":    {"bmp", "eps", "jpeg", "jpg", "png", "svg", "tiff", "webp", "xfc"},
	"documents": {"doc", "docx", "txt", "rtf", "pdf", "ooxml", "docm", "odt", "xls", "ppt", "pptx", "xps"},
	"code":      {"py", "css", "m", "c", "h", "php", "f90", "f77", "f08", "html", "tex", "js", "sh"},
	"audio":     {"mp3", "wma", "ogg", "m4a", "wav", "flac", "xm"},
	"video":     {"mp4", "avi", "mkv", "flv", "mov", "mpg", "wmv", "webm"},
}

// IsAnyFileType reports whether filetype selects every group. Empty
// counts as "any".
func IsAnyFileType(filetype string) bool {
	filetype = strings.ToLower(strings.TrimSpace(filetype))
	return filetype == "" || filetype == FileTypeAny
}

// FileTypeNames returns "any" followed by the group names, sorted.
func FileTypeNames() []string {
	names := make([]string, 0, len(FileTypes)+1)
	for name := range FileTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{FileTypeAny}, names...)
}

// Extensions returns the extensions of filetype minus exclude, in group
// order and without duplicates. Excluding an extension outside the group
// is a no-op.
func Extensions(filetype string, exclude []string) ([]string, error) {
	filetype = strings.ToLower(strings.TrimSpace(filetype))

	var groups []string
	if IsAnyFileType(filetype) {
		groups = fileTypeOrder
	} else if _, ok := FileTypes[filetype]; ok {
		groups = []string{filetype}
	} else {
		return nil, trovoerrors.ConfigError(fmt.Sprintf("unknown filetype %q", filetype), nil).
			WithSuggestion("Use one of: " + strings.Join(FileTypeNames(), ", "))
	}

	skip := make(map[string]bool, len(exclude))
	for _, ext := range exclude {
		skip[normalizeExt(ext)] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, ext := range FileTypes[g] {
			if skip[ext] || seen[ext] {
				continue
			}
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out, nil
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
