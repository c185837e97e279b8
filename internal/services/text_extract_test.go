package services

import (
	"strings"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText("transcript.txt", "text/plain", []byte("CGPA:  3.8\n\nBS Computer Science\tUMT"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "CGPA: 3.8 BS Computer Science UMT"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractTextHTML(t *testing.T) {
	html := "<!DOCTYPE html><html><body><h1>Result&nbsp;Card</h1><p>Grade: A &amp; B</p></body></html>"
	got, err := ExtractText("result.html", "", []byte(html))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(got, "Result Card") || !strings.Contains(got, "Grade: A & B") {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "<") {
		t.Fatalf("tags survived: %q", got)
	}
}

func TestExtractTextRejectsEmpty(t *testing.T) {
	if _, err := ExtractText("empty.txt", "text/plain", nil); err == nil {
		t.Fatal("empty file must error")
	}
}

func TestExtractTextRejectsFakePDF(t *testing.T) {
	if _, err := ExtractText("scan.pdf", "application/pdf", []byte{0x00, 0x01, 0x02, 0x03}); err == nil {
		t.Fatal("binary without %PDF header must error")
	}
}

func TestExtractTextUnsupportedBinary(t *testing.T) {
	data := make([]byte, 64)
	if _, err := ExtractText("blob.bin", "application/octet-stream", data); err == nil {
		t.Fatal("unknown binary must error")
	}
}
