package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// SanitizeFilename replaces everything except letters, digits, dot and
// hyphen with an underscore.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(baseName(name), "_")
}

// baseName drops any client-side directory from an uploaded filename.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// IsImageKey reports whether key names a jpg, jpeg or png object.
func IsImageKey(key string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(key))]
	return ok
}

// EventImagesPrefix is the prefix under which an event's photos live.
func EventImagesPrefix(eventID string) string {
	return fmt.Sprintf("events/shared/%s/images/", eventID)
}

// EventImageKey names an uploaded event photo. ts is in milliseconds and
// index is the file's position in its upload request.
func EventImageKey(eventID string, ts int64, index int, filename string) string {
	return fmt.Sprintf("%s%d-%d-%s", EventImagesPrefix(eventID), ts, index, SanitizeFilename(filename))
}

// EventSelfieKey names a selfie uploaded in the context of one event. The
// original filename is kept; only a directory part is dropped.
func EventSelfieKey(eventID string, ts int64, filename string) string {
	return fmt.Sprintf("events/shared/%s/selfies/selfie-%d-%s", eventID, ts, baseName(filename))
}

// EventCoverKey names an event's cover image. There is one per event and a
// new upload replaces it.
func EventCoverKey(eventID string) string {
	return fmt.Sprintf("events/shared/%s/cover.jpg", eventID)
}

// UserSelfieKey names a user's profile selfie, keeping the original filename.
func UserSelfieKey(email string, ts int64, filename string) string {
	return fmt.Sprintf("users/%s/selfies/selfie-%d-%s", email, ts, baseName(filename))
}

// PublicURL is the virtual-hosted URL of key in bucket.
func PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}

// KeyFromURL inverts PublicURL. It also accepts a bare key. URLs that
// point at another bucket are rejected.
func KeyFromURL(bucket, ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/"), true
	}
	prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket)
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(ref, prefix)
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}
