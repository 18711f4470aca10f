package uis

import "bytes"

// Signature classifies a buffered response body against the known
// server-side failure pages. Derived on the fly, never stored.
type Signature int

const (
	SignatureNormal Signature = iota
	SignatureDuplicateLogin
	SignatureRateLimited
	SignatureUnknown
)

// fixed marker strings rendered by the portals, these pages come back
// with a 200 so the body text is the only reliable discriminator
var (
	duplicateLoginMarker = []byte("重复登录")
	rateLimitMarker      = []byte("请不要过快点击")
)

func Classify(body []byte) Signature {
	if len(body) == 0 {
		return SignatureUnknown
	}
	if bytes.Contains(body, duplicateLoginMarker) {
		return SignatureDuplicateLogin
	}
	if bytes.Contains(body, rateLimitMarker) {
		return SignatureRateLimited
	}
	return SignatureNormal
}
