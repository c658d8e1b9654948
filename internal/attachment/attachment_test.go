package attachment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRemotePath(t *testing.T) {
	info := Classify("uploads/2024/file.pdf", "file.pdf")
	assert.Equal(t, KindRemotePath, info.Kind)
	assert.Equal(t, "uploads/2024/file.pdf", info.Value)
	assert.Equal(t, "file.pdf", info.FileName)
}

func TestClassifyInlinePNG(t *testing.T) {
	payload := "iVBORw0KGgo" + strings.Repeat("A", 120)
	info := Classify(payload, "")
	assert.Equal(t, KindInline, info.Kind)
	assert.Equal(t, "image/png", info.MIMEType)
	assert.Equal(t, "attachment.png", info.FileName)
}

func TestClassifyInlineJPEGDespiteSlashPrefix(t *testing.T) {
	// JPEG base64 starts with "/9j/": the slash must not demote it to a
	// remote path.
	payload := "/9j/" + strings.Repeat("B", 150)
	info := Classify(payload, "photo.jpg")
	assert.Equal(t, KindInline, info.Kind)
	assert.Equal(t, "image/jpeg", info.MIMEType)
	assert.Equal(t, "photo.jpg", info.FileName)
}

func TestClassifyDirectURL(t *testing.T) {
	info := Classify("https://cdn.example.com/x.png", "x.png")
	assert.Equal(t, KindDirectURL, info.Kind)

	info = Classify("data:image/png;base64,AAAA", "")
	assert.Equal(t, KindDirectURL, info.Kind)
}

func TestClassifyNone(t *testing.T) {
	info := Classify("", "")
	assert.Equal(t, KindNone, info.Kind)
}

func TestClassifySignatureTable(t *testing.T) {
	cases := []struct {
		prefix string
		mime   string
	}{
		{"iVBORw0KGgo", "image/png"},
		{"/9j/", "image/jpeg"},
		{"R0lGOD", "image/gif"},
		{"JVBER", "application/pdf"},
		{"UEs", "application/zip"},
	}
	for _, tc := range cases {
		payload := tc.prefix + strings.Repeat("C", 200)
		info := Classify(payload, "")
		assert.Equal(t, KindInline, info.Kind, tc.prefix)
		assert.Equal(t, tc.mime, info.MIMEType, tc.prefix)
	}
}

func TestClassifyUnknownLongPayloadDefaultsToBinary(t *testing.T) {
	payload := strings.Repeat("Q", 150)
	info := Classify(payload, "")
	assert.Equal(t, KindInline, info.Kind)
	assert.Equal(t, "application/octet-stream", info.MIMEType)
	assert.Equal(t, "attachment.bin", info.FileName)
}

func TestValidateFileSizeBoundary(t *testing.T) {
	require.NoError(t, ValidateFile("report.pdf", MaxFileSize))

	err := ValidateFile("report.pdf", MaxFileSize+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestValidateFileExtension(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.xlsx", "c.docx", "d.jpg", "e.jpeg", "f.png", "g.zip", "H.PDF"} {
		assert.NoError(t, ValidateFile(name, 1024), name)
	}

	err := ValidateFile("malware.exe", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTypeInvalid)

	// Size does not rescue a bad extension.
	assert.ErrorIs(t, ValidateFile("notes.txt", 1), ErrFileTypeInvalid)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x01, 0x02}
	encoded := Encode(payload)

	info := Info{Kind: KindInline, Value: encoded, MIMEType: "image/png"}
	decoded, err := info.Decode()
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDataURL(t *testing.T) {
	info := Info{Kind: KindInline, Value: "QUJD", MIMEType: "application/pdf"}
	url, err := info.DataURL()
	require.NoError(t, err)
	assert.Equal(t, "data:application/pdf;base64,QUJD", url)

	_, err = Info{Kind: KindDirectURL, Value: "https://x"}.DataURL()
	assert.Error(t, err)
}

func TestDownloadName(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 30, 45, 0, time.UTC)
	assert.Equal(t, "report_2026-08-29T10-30-45.pdf", DownloadName("report.pdf", at))
	assert.Equal(t, "attachment_2026-08-29T10-30-45", DownloadName("", at))
	// Dotless names keep working.
	assert.Equal(t, "notes_2026-08-29T10-30-45", DownloadName("notes", at))
}

func TestPreviewClasses(t *testing.T) {
	assert.True(t, IsImage("photo.PNG"))
	assert.False(t, IsImage("doc.pdf"))
	assert.True(t, IsPDF("doc.pdf"))
	assert.True(t, IsText("readme.md"))
	assert.False(t, IsText("archive.zip"))
}
