package validation

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioview/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"text/csv", "application/csv", "text/plain", "application/vnd.ms-excel", "TEXT/CSV"} {
		assert.NoError(t, ValidateClientContentType(ct), "contentType %q", ct)
	}
	for _, ct := range []string{"application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "", "image/png"} {
		assert.Error(t, ValidateClientContentType(ct), "contentType %q", ct)
	}
}

func TestValidateFileContentAcceptsCSVText(t *testing.T) {
	content := []byte("symbol,quantity\nAAPL,10\n")
	reader := bytes.NewReader(content)

	detected, err := ValidateFileContentByMagicBytes(reader)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)

	// The read pointer must be back at the start for the parser.
	rest := make([]byte, len(content))
	n, _ := reader.Read(rest)
	assert.Equal(t, len(content), n)
}

func TestValidateFileContentRejectsBinary(t *testing.T) {
	_, err := ValidateFileContentByMagicBytes(bytes.NewReader([]byte{0x00, 0x01, 0x02, 'a', 'b'}))
	assert.Error(t, err)
}

func TestValidateFileContentRejectsEmpty(t *testing.T) {
	_, err := ValidateFileContentByMagicBytes(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestSanitizeTextStripsHTML(t *testing.T) {
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "My Portfolio", SanitizeText("My <b>Portfolio</b>"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A9)", SanitizeForFormulaInjection("=SUM(A1:A9)"))
	assert.Equal(t, "'+1234", SanitizeForFormulaInjection("+1234"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "AAPL", SanitizeForFormulaInjection("AAPL"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "AAPL", StripUnprintable("AA\x00PL\x07"))
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"))
}
