package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

const SignatureHeader = "X-Line-Signature"

// VerifySignature checks the base64 HMAC-SHA256 of body under the channel
// secret.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(Sign(channelSecret, body), expected)
}

func Sign(channelSecret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return mac.Sum(nil)
}
