package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100))
		assert.Equal(t, 500, p.chunkSize)
		assert.Equal(t, 100, p.overlap)
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		assert.Equal(t, 25, p.overlap)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
	})
}

func process(t *testing.T, p *Processor, content string) []domain.Chunk {
	t.Helper()
	chunks, err := p.Process(context.Background(), &domain.Document{
		ID:         "doc-1",
		Filename:   "a.txt",
		Collection: "legal",
		Content:    content,
	}, nil)
	require.NoError(t, err)
	return chunks
}

func contents(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestProcess_EmptyContent(t *testing.T) {
	assert.Empty(t, process(t, New(), ""))
	assert.Empty(t, process(t, New(), "   \n  "))
}

func TestProcess_SmallContent(t *testing.T) {
	chunks := process(t, New(WithChunkSize(100), WithOverlap(20)), "This is a small piece of content.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, "This is a small piece of content.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, "a.txt", chunks[0].Metadata["filename"])
	assert.Equal(t, "legal", chunks[0].Metadata["collection"])
	assert.Equal(t, 0, chunks[0].Metadata["offset"])
}

func TestProcess_Overlap(t *testing.T) {
	chunks := process(t, New(WithChunkSize(10), WithOverlap(3)), "0123456789ABCDEFGHIJ")
	assert.Equal(t, []string{"0123456789", "789ABCDEFG", "EFGHIJ"}, contents(chunks))
}

func TestProcess_LargeContent(t *testing.T) {
	chunks := process(t, New(WithChunkSize(100), WithOverlap(20)), strings.Repeat("x", 250))

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 100)

	seen := make(map[string]bool)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.False(t, seen[c.ID], "duplicate chunk ID")
		seen[c.ID] = true
	}
}

func TestProcess_ExactMultiple(t *testing.T) {
	chunks := process(t, New(WithChunkSize(50), WithOverlap(0)), strings.Repeat("a", 100))
	assert.Len(t, chunks, 2)
}

func TestProcess_CutsAtWhitespace(t *testing.T) {
	chunks := process(t, New(WithChunkSize(12), WithOverlap(0)), "alpha beta gamma delta")
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, contents(chunks))
}

func TestProcess_MultiByteRunes(t *testing.T) {
	chunks := process(t, New(WithChunkSize(10), WithOverlap(0)), strings.Repeat("ñ", 15))

	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Content))
	}
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0].Content))
}

func TestProcess_IgnoresInputChunks(t *testing.T) {
	existing := []domain.Chunk{{ID: "existing", Content: "ignored"}}
	chunks, err := New().Process(context.Background(), &domain.Document{ID: "d", Content: "new"}, existing)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotEqual(t, "existing", chunks[0].ID)
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Process(ctx, &domain.Document{Content: "text"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
