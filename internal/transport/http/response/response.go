package response

import "github.com/gin-gonic/gin"

type ErrorBody struct {
	Detail string `json:"detail"`
}

func JSON(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, data)
}

func OK(c *gin.Context, data interface{}) {
	JSON(c, 200, data)
}

func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail})
}

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, httpStatus int, detail string) {
	c.AbortWithStatusJSON(httpStatus, ErrorBody{Detail: detail})
}
