// Package evidencekind implements the evidence type detector (C2): a pure
// function classifying an artifact as document, image, email, or other.
package evidencekind

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Kind is the closed set of evidence classifications (spec §3).
type Kind string

const (
	Document Kind = "document"
	Image    Kind = "image"
	Email    Kind = "email"
	Other    Kind = "other"
)

var emailExtensions = map[string]bool{
	".eml":  true,
	".msg":  true,
	".mbox": true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

var avExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".wmv": true,
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
}

// ProbeResult carries the optional inputs a caller can supply to improve
// classification beyond the extension table (§4.2).
type ProbeResult struct {
	// HasExtractableText is set by a caller that has already attempted a PDF
	// text-layer extraction (out of scope here — see spec §1); nil means
	// "unknown", which Detect treats as "assume no text layer".
	HasExtractableText *bool
}

// Detect classifies an artifact by path, declared MIME type, and an optional
// probe of the file's content. It never performs file I/O itself — file
// readers are a pluggable external collaborator per spec §1.
func Detect(path string, declaredMIME string, probe ProbeResult) Kind {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case emailExtensions[ext]:
		return Email
	case imageExtensions[ext]:
		return Image
	case ext == ".txt":
		return Document
	case ext == ".pdf":
		return detectPDF(probe)
	case avExtensions[ext]:
		return Other
	}

	// Fall back to the declared MIME type when the extension is absent or
	// unrecognized, before giving up to Other.
	switch {
	case strings.HasPrefix(declaredMIME, "message/"), declaredMIME == "application/mbox":
		return Email
	case strings.HasPrefix(declaredMIME, "image/"):
		return Image
	case declaredMIME == "text/plain":
		return Document
	case declaredMIME == "application/pdf":
		return detectPDF(probe)
	case strings.HasPrefix(declaredMIME, "video/"), strings.HasPrefix(declaredMIME, "audio/"):
		return Other
	}

	return Other
}

func detectPDF(probe ProbeResult) Kind {
	if probe.HasExtractableText != nil && *probe.HasExtractableText {
		return Document
	}
	return Image
}

// SniffMIME is a tiny best-effort content sniffer for callers that have
// bytes but no declared MIME type, delegating to the magic-number table a
// type-specific reader would otherwise duplicate.
func SniffMIME(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return "application/pdf"
	case bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(head, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(head, []byte("From ")), bytes.HasPrefix(head, []byte("Return-Path:")):
		return "message/rfc822"
	default:
		return "application/octet-stream"
	}
}
