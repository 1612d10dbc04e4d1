// Package media derives HTTP response metadata (content type, download
// filename) from stored keys and resource titles. Everything here is pure.
package media

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// contentTypes maps the extensions we actually see in teaching materials.
// Anything unknown falls back to a generic binary type.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".odt":  "application/vnd.oasis.opendocument.text",
	".zip":  "application/zip",
	".txt":  "text/plain",
	".epub": "application/epub+zip",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// ContentTypeFor maps a stored key's extension to a MIME type.
func ContentTypeFor(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SafeDownloadFilename builds a human-readable filename from a resource
// title and the stored key's extension. Characters outside the allow-list
// (letters including accented ones, digits, spaces, hyphens) are stripped.
func SafeDownloadFilename(title, key string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}

	name := strings.TrimSpace(b.String())
	if name == "" {
		name = "download"
	}
	return name + strings.ToLower(filepath.Ext(key))
}

// ContentDisposition renders the attachment header value with the filename
// percent-encoded, e.g. `attachment; filename="My%20Document.pdf"`.
func ContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", url.PathEscape(filename))
}
