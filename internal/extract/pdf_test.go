package extract

import (
	"context"
	"errors"
	"testing"
)

func TestPDFTextRejectsNonPDF(t *testing.T) {
	_, err := PDFText(context.Background(), []byte("PK\x03\x04 docx bytes"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestPDFTextRejectsCorruptPDF(t *testing.T) {
	_, err := PDFText(context.Background(), []byte("%PDF-1.4\nthis is not really a pdf"))
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if errors.Is(err, ErrNotPDF) {
		t.Fatal("corrupt pdf with valid header should fail while parsing, not sniffing")
	}
}

func TestPDFTextHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PDFText(ctx, []byte("%PDF-1.4")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
