package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeFor("resources/u1/deadbeef.pdf"))
	assert.Equal(t, "application/zip", ContentTypeFor("resources/u1/deadbeef.zip"))
	assert.Equal(t, "image/png", ContentTypeFor("avatars/u1/deadbeef.png"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("previews/u1/deadbeef.JPEG"))

	// Unknown and missing extensions fall back to generic binary
	assert.Equal(t, "application/octet-stream", ContentTypeFor("resources/u1/deadbeef.xyz"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("resources/u1/deadbeef"))
}

func TestSafeDownloadFilename(t *testing.T) {
	assert.Equal(t, "Algebra Workbook.pdf",
		SafeDownloadFilename("Algebra Workbook", "resources/u1/deadbeef.pdf"))

	// Accented letters survive
	assert.Equal(t, "Matematika érettségi feladatsor.pdf",
		SafeDownloadFilename("Matematika érettségi feladatsor", "resources/u1/deadbeef.pdf"))

	// Everything outside the allow-list is stripped
	assert.Equal(t, "Grade 5  Fractions.zip",
		SafeDownloadFilename(`Grade 5 / "Fractions"`, "resources/u1/deadbeef.zip"))

	// Deterministic for identical inputs
	first := SafeDownloadFilename("Same Title", "resources/u1/a.pdf")
	second := SafeDownloadFilename("Same Title", "resources/u1/a.pdf")
	assert.Equal(t, first, second)
}

func TestSafeDownloadFilename_EmptyTitle(t *testing.T) {
	assert.Equal(t, "download.pdf", SafeDownloadFilename("", "resources/u1/deadbeef.pdf"))
	assert.Equal(t, "download.pdf", SafeDownloadFilename("///***", "resources/u1/deadbeef.pdf"))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="My%20Document.pdf"`, ContentDisposition("My Document.pdf"))
	assert.Equal(t, `attachment; filename="report.pdf"`, ContentDisposition("report.pdf"))
}
