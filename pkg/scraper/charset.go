package scraper

import (
	"fmt"
	"mime"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// decodeBody converts a response body to UTF-8 text. What the bytes look like
// wins over what the server declared in contentType.
func decodeBody(body []byte, contentType string) (string, error) {
	enc := bodyEncoding(body, contentType)
	if enc == nil || enc == unicode.UTF8 || enc == encoding.Nop {
		return string(body), nil
	}
	b, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(b), nil
}

func bodyEncoding(body []byte, contentType string) encoding.Encoding {
	if name := apparentCharset(body); name != "" {
		if e, _ := charset.Lookup(name); e != nil {
			return e
		}
	}
	if name := declaredCharset(contentType); name != "" {
		if e, _ := charset.Lookup(name); e != nil {
			return e
		}
	}
	// BOM, <meta charset> and the windows-1252 default
	e, _, _ := charset.DetermineEncoding(body, contentType)
	return e
}

func apparentCharset(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if utf8.Valid(body) {
		return "utf-8"
	}
	r, err := chardet.NewHtmlDetector().DetectBest(body)
	if err != nil || r.Confidence == 0 {
		return ""
	}
	return r.Charset
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
