package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		want        string
	}{
		{
			name: "ascii is untouched",
			body: []byte("<p>plain</p>"),
			want: "<p>plain</p>",
		},
		{
			name:        "valid utf-8 ignores declaration",
			body:        []byte("<p>naïve café</p>"),
			contentType: "text/html; charset=windows-1252",
			want:        "<p>naïve café</p>",
		},
		{
			name:        "latin-1 without declaration",
			body:        latin1("<html><body><p>Le café était très chaud, et la crème fraîche était délicieuse.</p></body></html>"),
			contentType: "text/html",
			want:        "crème fraîche était",
		},
		{
			name: "empty body",
			body: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBody(tt.body, tt.contentType)
			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestDeclaredCharset(t *testing.T) {
	assert.Equal(t, "iso-8859-1", declaredCharset("text/html; charset=iso-8859-1"))
	assert.Equal(t, "", declaredCharset("text/html"))
	assert.Equal(t, "", declaredCharset(""))
	assert.Equal(t, "", declaredCharset(";;;"))
}
