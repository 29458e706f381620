package chunker

import (
	"strings"
	"testing"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

func okDoc(text string) domain.Document {
	return domain.Document{
		ID:     "test-doc",
		URL:    "https://example.com/page",
		Text:   text,
		Status: domain.FetchOK,
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, s.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		s := New(WithChunkSize(500))
		if s.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", s.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.overlap >= s.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", s.overlap)
		}
	})
}

func TestSplit_EmptyText(t *testing.T) {
	s := New()
	chunks := s.Split(okDoc(""))
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_FailedDocument(t *testing.T) {
	s := New()

	for _, status := range []domain.FetchStatus{domain.FetchFailed, domain.FetchTimeout} {
		doc := okDoc(strings.Repeat("real content here. ", 50))
		doc.Status = status
		if chunks := s.Split(doc); len(chunks) != 0 {
			t.Errorf("status %q: expected 0 chunks, got %d", status, len(chunks))
		}
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	s := New(WithChunkSize(600), WithOverlap(80))
	text := "The capital of France is Paris, a city on the Seine with a population of over two million people inside its administrative limits."

	chunks := s.Split(okDoc(text))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text mismatch: %q", chunks[0].Text)
	}
	if chunks[0].Ordinal != 0 {
		t.Errorf("expected ordinal 0, got %d", chunks[0].Ordinal)
	}
	if chunks[0].DocumentURL != "https://example.com/page" {
		t.Errorf("unexpected document URL: %q", chunks[0].DocumentURL)
	}
}

func TestSplit_OrdinalsAndMaxSize(t *testing.T) {
	s := New(WithChunkSize(200), WithOverlap(40))

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence carries enough words to matter for chunking purposes. ")
	}

	chunks := s.Split(okDoc(b.String()))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("chunk %d: expected ordinal %d, got %d", i, i, c.Ordinal)
		}
		// Chunk size plus the carried overlap seed.
		if len(c.Text) > 200+40+1 {
			t.Errorf("chunk %d too large: %d chars", i, len(c.Text))
		}
		if c.ID == "" {
			t.Errorf("chunk %d has empty ID", i)
		}
	}
}

func TestSplit_OverlapCarried(t *testing.T) {
	s := New(WithChunkSize(150), WithOverlap(30))

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Overlap regions let retrieval survive cuts across sentences nicely. ")
	}

	chunks := s.Split(okDoc(b.String()))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each later chunk starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prevTail := tail(chunks[i-1].Text, 30)
		if !strings.HasPrefix(chunks[i].Text, strings.TrimSpace(prevTail)) {
			t.Errorf("chunk %d does not carry overlap from chunk %d", i, i-1)
		}
	}
}

func TestSplit_DropsShortFragments(t *testing.T) {
	s := New()
	chunks := s.Split(okDoc("Home.\nAbout.\nContact."))
	if len(chunks) != 0 {
		t.Errorf("expected navigation crumbs to be dropped, got %d chunks", len(chunks))
	}
}

func TestSplit_DropsBoilerplate(t *testing.T) {
	s := New()

	boilerplate := "Please enable JavaScript in your browser settings and reload this page to continue using this site properly."
	chunks := s.Split(okDoc(boilerplate))
	if len(chunks) != 0 {
		t.Errorf("expected javascript boilerplate to be dropped, got %d chunks", len(chunks))
	}

	cookieWall := "You must enable cookies before this website will function. Adjust your preferences and then refresh the current page."
	chunks = s.Split(okDoc(cookieWall))
	if len(chunks) != 0 {
		t.Errorf("expected cookie boilerplate to be dropped, got %d chunks", len(chunks))
	}
}

func TestSplit_LongUnbrokenText(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))

	// No sentence terminators at all.
	text := strings.Repeat("abcdefghij", 50)
	chunks := s.Split(okDoc(text))
	if len(chunks) == 0 {
		t.Fatal("expected chunks from unbroken text")
	}
	for i, c := range chunks {
		if len(c.Text) > 100 {
			t.Errorf("chunk %d exceeds fixed window: %d chars", i, len(c.Text))
		}
	}
}

func TestTail_RuneBoundary(t *testing.T) {
	s := "日本語のテキスト"
	cut := tail(s, 5)
	if !strings.HasSuffix(s, cut) {
		t.Errorf("tail is not a suffix: %q", cut)
	}
	for _, r := range cut {
		if r == '�' {
			t.Errorf("tail split a rune: %q", cut)
		}
	}
}
