package catalog

import (
	"bytes"
	"net/http"
)

// BlockType classifies the kind of anti-bot response detected.
type BlockType string

const (
	BlockChallenge BlockType = "challenge"
	BlockCaptcha   BlockType = "captcha"
	BlockJSShell   BlockType = "js_shell"
)

var challengeMarkers = [][]byte{
	[]byte("cf-browser-verification"),
	[]byte("Checking your browser"),
	[]byte("Attention Required! | Cloudflare"),
	[]byte("Access denied"),
	[]byte("__cf_chl_"),
}

var captchaMarkers = [][]byte{
	[]byte("g-recaptcha"),
	[]byte("h-captcha"),
	[]byte("Please verify you are a human"),
}

// jsShellMarkers show up on pages that ship an empty application shell and
// demand a JS runtime before rendering any content.
var jsShellMarkers = [][]byte{
	[]byte("You need to enable JavaScript to run this app"),
	[]byte("Please enable JavaScript"),
	[]byte("<noscript>This site requires JavaScript"),
}

// DetectBlock reports whether a response is an anti-bot challenge or an
// unrenderable JS shell rather than real content. Detected blocks route the
// query to the rendered fallback instead of being retried.
func DetectBlock(statusCode int, header http.Header, body []byte) (bool, BlockType) {
	if statusCode == http.StatusForbidden && header.Get("cf-mitigated") != "" {
		return true, BlockChallenge
	}
	if statusCode == http.StatusForbidden || statusCode == http.StatusServiceUnavailable {
		for _, m := range challengeMarkers {
			if bytes.Contains(body, m) {
				return true, BlockChallenge
			}
		}
	}
	for _, m := range captchaMarkers {
		if bytes.Contains(body, m) {
			return true, BlockCaptcha
		}
	}
	if statusCode == http.StatusOK {
		for _, m := range jsShellMarkers {
			if bytes.Contains(body, m) {
				return true, BlockJSShell
			}
		}
	}
	return false, ""
}
