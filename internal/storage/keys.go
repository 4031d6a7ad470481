package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

var ErrInvalidKey = errors.New("invalid object key")

// AudioObjectKey is the storage key of a synthesized slide narration.
// slideIndex is 1-based. The shape is relied on by assets already in the bucket.
func AudioObjectKey(moduleID uint, mode models.ContentMode, slideIndex int, lang string) string {
	return fmt.Sprintf("%d/%s/audio/%d_%s.mp3", moduleID, mode.StorageSegment(), slideIndex, strings.ToUpper(lang))
}

// UploadKey joins folder and filename after rejecting anything that could escape the folder.
func UploadKey(folder, filename string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	filename = strings.TrimSpace(filename)

	if filename == "" || folder == "" {
		return "", fmt.Errorf("%w: folder and filename are required", ErrInvalidKey)
	}
	if strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: filename must not contain separators", ErrInvalidKey)
	}
	if strings.Contains(folder, `\`) {
		return "", fmt.Errorf("%w: folder must use forward slashes", ErrInvalidKey)
	}
	for _, seg := range strings.Split(folder, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: bad folder segment %q", ErrInvalidKey, seg)
		}
	}
	if filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: bad filename", ErrInvalidKey)
	}
	return path.Join(folder, filename), nil
}

// PublicURL resolves an object key under the public domain.
func PublicURL(domain, key string) string {
	return strings.TrimRight(domain, "/") + "/" + strings.TrimLeft(key, "/")
}
