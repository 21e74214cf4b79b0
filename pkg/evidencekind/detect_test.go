package evidencekind

import "testing"

func TestDetectByExtension(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"letter.txt", Document},
		{"photo.JPG", Image},
		{"thread.eml", Email},
		{"archive.mbox", Email},
		{"clip.mp4", Other},
		{"unknown.xyz", Other},
	}
	for _, c := range cases {
		if got := Detect(c.path, "", ProbeResult{}); got != c.want {
			t.Errorf("Detect(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestDetectPDFByTextLayer(t *testing.T) {
	withText := true
	withoutText := false

	if got := Detect("report.pdf", "", ProbeResult{HasExtractableText: &withText}); got != Document {
		t.Errorf("pdf with text layer: got %q, want document", got)
	}
	if got := Detect("scan.pdf", "", ProbeResult{HasExtractableText: &withoutText}); got != Image {
		t.Errorf("pdf without text layer: got %q, want image", got)
	}
	if got := Detect("unknown.pdf", "", ProbeResult{}); got != Image {
		t.Errorf("pdf with unknown text layer: got %q, want image (assume no text layer)", got)
	}
}

func TestDetectFallsBackToDeclaredMIME(t *testing.T) {
	if got := Detect("noext", "message/rfc822", ProbeResult{}); got != Email {
		t.Errorf("got %q, want email", got)
	}
	if got := Detect("noext", "image/png", ProbeResult{}); got != Image {
		t.Errorf("got %q, want image", got)
	}
	if got := Detect("noext", "application/octet-stream", ProbeResult{}); got != Other {
		t.Errorf("got %q, want other", got)
	}
}

func TestSniffMIME(t *testing.T) {
	cases := []struct {
		head []byte
		want string
	}{
		{[]byte("%PDF-1.4"), "application/pdf"},
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
		{[]byte("GIF89a"), "image/gif"},
		{[]byte("From someone@example.com"), "message/rfc822"},
		{[]byte("random bytes"), "application/octet-stream"},
	}
	for _, c := range cases {
		if got := SniffMIME(c.head); got != c.want {
			t.Errorf("SniffMIME(%q) = %q, want %q", c.head, got, c.want)
		}
	}
}
