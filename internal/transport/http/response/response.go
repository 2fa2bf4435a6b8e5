package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GenericErrorMessage is returned for every failure not caused by the caller.
const GenericErrorMessage = "There was an error processing your request"

// Codes for the admin API envelope.
const (
	CodeOK             = 0
	CodeBadRequest     = 40000
	CodeUnauthorized   = 40100
	CodeNotFound       = 40400
	CodeTooManyRequest = 42900
	CodeInternalServer = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// UserErrorBody is the 400 body of the public endpoints.
type UserErrorBody struct {
	Error string      `json:"error"`
	Data  interface{} `json:"data"`
}

type ServerErrorBody struct {
	Error string `json:"error"`
}

func UserError(c *gin.Context, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusBadRequest, UserErrorBody{Error: message, Data: data})
}

func ServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ServerErrorBody{Error: GenericErrorMessage})
}
