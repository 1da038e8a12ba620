package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type fakePages []func() (string, error)

func (f fakePages) NumPage() int {
	return len(f)
}

func (f fakePages) PageText(num int) (string, error) {
	return f[num-1]()
}

func text(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func TestExtractPages_SkipsBrokenPages(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())
	src := fakePages{
		text("  Page one text"),
		func() (string, error) { panic("corrupt content stream") },
		func() (string, error) { return "", errors.New("bad font") },
		text("Page four text  \n"),
	}

	got := p.extractPages(context.Background(), src)

	require.True(t, got.OK())
	assert.Equal(t, "Page one text\nPage four text", got.Text)
}

func TestExtractPages_KeepsPageOrder(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())
	var src fakePages
	var want []string
	for i := 0; i < 20; i++ {
		s := strings.Repeat(string(rune('a'+i)), 3)
		src = append(src, text(s))
		want = append(want, s)
	}

	got := p.extractPages(context.Background(), src)

	require.True(t, got.OK())
	assert.Equal(t, strings.Join(want, "\n"), got.Text)
}

func TestExtractPages_AllPagesEmptyIsFailure(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())
	src := fakePages{
		text("   "),
		func() (string, error) { panic("boom") },
	}

	got := p.extractPages(context.Background(), src)

	require.False(t, got.OK())
	assert.True(t, strings.HasPrefix(got.Err.Message, "Error"))
	assert.Empty(t, got.Text)
}

func TestExtractPages_CancelledContext(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := p.extractPages(ctx, fakePages{text("never read")})

	assert.False(t, got.OK())
}

func TestExtract_UnopenableDocument(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())

	for name, data := range map[string][]byte{
		"empty":     {},
		"not_pdf":   []byte("this is definitely not a pdf document"),
		"truncated": []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"),
	} {
		t.Run(name, func(t *testing.T) {
			got := p.Extract(context.Background(), data)

			require.False(t, got.OK())
			assert.True(t, strings.HasPrefix(got.Err.Message, "Error"))
		})
	}
}

func TestCanProcess(t *testing.T) {
	p := NewProcessor(logger.NewTestLogger())

	assert.True(t, p.CanProcess("pdf"))
	assert.True(t, p.CanProcess("PDF"))
	assert.False(t, p.CanProcess(models.Text))
	assert.False(t, p.CanProcess("docx"))
}

func TestRepair_RejectsNonPDF(t *testing.T) {
	out, err := repair([]byte("plain text, no pdf header"))

	assert.Error(t, err)
	assert.Nil(t, out)
}
