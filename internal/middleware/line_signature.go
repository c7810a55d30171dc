package middleware

import (
	"bytes"
	"io"
	"net/http"

	"line-leave/internal/messaging/line"
	"line-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const RawBodyKey = "raw_body"

// maxWebhookBody bounds what is read before the signature is checked.
const maxWebhookBody = 1 << 20

// VerifyLineSignature rejects requests whose body does not match the
// X-Line-Signature header. The verified body is stored under RawBodyKey.
func VerifyLineSignature(channelSecret string, logger ...*zap.Logger) gin.HandlerFunc {
	log := zap.L().Named("middleware.line_signature")
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0].Named("middleware.line_signature")
	}

	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "cannot read body", nil)
			c.Abort()
			return
		}
		if len(body) > maxWebhookBody {
			response.Error(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "body too large", nil)
			c.Abort()
			return
		}

		if !line.VerifySignature(channelSecret, body, c.GetHeader(line.SignatureHeader)) {
			log.Warn("webhook signature rejected", zap.String("client_ip", c.ClientIP()))
			response.Error(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "invalid signature", nil)
			c.Abort()
			return
		}

		c.Set(RawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
