package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *Local {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return l
}

func TestSaveAndOpen(t *testing.T) {
	l := newLocal(t)

	rel, err := l.Save(MediaDir(7), "photo 1.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "media/7/photo_1.jpg", rel)

	f, err := l.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	b, _ := io.ReadAll(f)
	assert.Equal(t, "jpeg", string(b))

	entries, err := os.ReadDir(filepath.Join(l.Root, "media", "7"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSaveFailureLeavesNothing(t *testing.T) {
	l := newLocal(t)

	_, err := l.Save(LogoDir(1), "logo.png", failingReader{})
	assert.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(l.Root, "logos", "1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove(t *testing.T) {
	l := newLocal(t)
	rel, err := l.Save(MediaDir(1), "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	require.NoError(t, l.Remove(rel))
	assert.ErrorIs(t, l.Remove(rel), os.ErrNotExist)

	require.NoError(t, l.RemoveAll(MediaDir(1)))
	require.NoError(t, l.RemoveAll(MediaDir(99)))
}

func TestPathsCannotEscapeRoot(t *testing.T) {
	l := newLocal(t)
	assert.ErrorIs(t, l.Remove("../etc/passwd"), ErrOutsideRoot)
	_, err := l.Open("../../secret")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.ErrorIs(t, l.RemoveAll("."), ErrOutsideRoot)

	rel, err := l.Save(MediaDir(1), "../../evil.sh", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "media/1/evil.sh", rel)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeName("C:\\Users\\x\\report.pdf"))
	assert.Equal(t, "file", SanitizeName(".."))
	assert.Equal(t, "my_file_.png", SanitizeName("my file!.png"))
}
