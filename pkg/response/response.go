package response

import (
	"net/http"

	appErr "callbreak-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg"`
	Err  string      `json:"err,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	JSON(c, http.StatusOK, data, msg)
}

func Error(c *gin.Context, status int, msg string) {
	JSON(c, status, gin.H{}, msg)
}

// StatusOf maps an error kind to the HTTP status the API reports.
func StatusOf(err error) int {
	switch appErr.KindOf(err) {
	case appErr.KindInvalid:
		return http.StatusBadRequest
	case appErr.KindNotFound:
		return http.StatusNotFound
	case appErr.KindRejected:
		return http.StatusForbidden
	case appErr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with its mapped status. Internal and integrity
// failures hide the underlying message.
func FromError(c *gin.Context, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, Body{
		Code: status,
		Data: gin.H{},
		Msg:  msg,
		Err:  appErr.CodeOf(err),
	})
}

func JSON(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Body{
		Code: status,
		Data: data,
		Msg:  msg,
	})
}
