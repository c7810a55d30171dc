package apperror

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type replyTarget struct {
	ReplyToken string `json:"reply_token" binding:"required"`
	Kind       string `json:"kind" binding:"oneof=message postback"`
}

func TestMapValidationError(t *testing.T) {
	Init()

	t.Run("required field uses json name", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(replyTarget{Kind: "message"})
		mapped := MapValidationError(err)

		assert.ErrorIs(t, mapped, RequiredField("Reply Token"))
		assert.Equal(t, "Reply Token is required", mapped.Error())
	})

	t.Run("other tags are invalid", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(replyTarget{ReplyToken: "rt", Kind: "sticker"})
		assert.Equal(t, "Kind is invalid", MapValidationError(err).Error())
	})

	t.Run("non validation error", func(t *testing.T) {
		assert.ErrorIs(t, MapValidationError(errors.New("unexpected EOF")), ErrInvalidInput)
	})
}
