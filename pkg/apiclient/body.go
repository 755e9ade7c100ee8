package apiclient

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const maxSnippetBytes = 512

// serverMessage returns the error.message string of a JSON body as sent, or "".
func serverMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	res := gjson.GetBytes(body, "error.message")
	if res.Type != gjson.String {
		return ""
	}
	return res.String()
}

// bodySnippet shortens a response body for logs. HTML pages, typically from
// a gateway in front of the API, are reduced to their visible text.
func bodySnippet(body []byte, header http.Header) string {
	if len(body) == 0 {
		return ""
	}
	if isHTML(header) {
		if text := htmlText(body); text != "" {
			return truncate(text)
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func isHTML(header http.Header) bool {
	if header == nil {
		return false
	}
	mt, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	return err == nil && mt == "text/html"
}

func htmlText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	switch {
	case title == "":
		return text
	case text == "" || strings.HasPrefix(text, title):
		return title
	default:
		return title + ": " + text
	}
}

func truncate(s string) string {
	if len(s) <= maxSnippetBytes {
		return s
	}
	return s[:maxSnippetBytes]
}
