package browser

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/raysh454/httpbrowser/internal/model"
	"github.com/raysh454/httpbrowser/internal/uri"
)

// minDetectConfidence is the chardet confidence below which the guess is
// ignored.
const minDetectConfidence = 50

// fallbackCharset is what the HTML sniffing rules report when nothing in the
// body names an encoding.
const fallbackCharset = "windows-1252"

// DecodeBody returns the response body converted to UTF-8. The charset comes
// from Content-Type, then from the page itself (BOM, meta tags, valid UTF-8),
// then from a statistical guess over the body.
func DecodeBody(resp *model.Response) (string, error) {
	contentType := resp.ContentType()
	if _, params, err := mime.ParseMediaType(contentType); err != nil || params["charset"] == "" {
		if _, name, _ := charset.DetermineEncoding(resp.Body, contentType); name != fallbackCharset {
			contentType = "text/html; charset=" + name
		} else if guess := detectCharset(resp.Body); guess != "" {
			contentType = "text/html; charset=" + guess
		}
	}

	r, err := charset.NewReader(bytes.NewReader(resp.Body), contentType)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(b), nil
}

func detectCharset(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	res, err := chardet.NewHtmlDetector().DetectBest(body)
	if err != nil || res.Confidence < minDetectConfidence {
		return ""
	}
	return strings.ToLower(res.Charset)
}

// Document parses the current page.
func (s *Session) Document() (*goquery.Document, error) {
	resp, err := s.Response()
	if err != nil {
		return nil, err
	}
	body, err := DecodeBody(resp)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// Text returns the text of the first element matching selector on the
// current page.
func (s *Session) Text(selector string) (string, error) {
	doc, err := s.Document()
	if err != nil {
		return "", err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Title returns the title of the current page.
func (s *Session) Title() (string, error) {
	return s.Text("title")
}

// Links returns the absolute targets of the a, area and link elements and
// of the frames of the current page, in document order. A <base href> is
// honored.
func (s *Session) Links() ([]string, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	base, err := s.CurrentURL()
	if err != nil {
		return nil, err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		base = uri.MergeURLs(base, href)
	}

	var links []string
	doc.Find("a[href], area[href], link[href], iframe[src], frame[src]").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := sel.Attr("href")
		if !ok {
			ref, _ = sel.Attr("src")
		}
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
			return
		}
		links = append(links, uri.MergeURLs(base, ref))
	})
	return links, nil
}
