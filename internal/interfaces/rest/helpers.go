package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/auth"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// GetUserFromContext extracts the request identity placed by the auth
// middleware. Requests that skipped the middleware act as the anonymous user.
func GetUserFromContext(c *gin.Context) models.UserSession {
	if v, exists := c.Get(constants.ContextKeyUser); exists {
		if user, ok := v.(models.UserSession); ok {
			return user
		}
	}
	return auth.AnonymousSession()
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	status := apperrors.GetHTTPStatus(err)
	resp := apperrors.ToResponse(err)

	if status >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", status, c.Request.Method, c.Request.URL.Path, resp.Message)
	}

	body := gin.H{
		constants.ResponseError: resp.Message,
		constants.FieldMessage:  resp.Message,
		"code":                  resp.Code,
		constants.ResponseData:  nil,
	}
	if resp.Details != nil {
		body["details"] = resp.Details
	}
	c.JSON(status, body)
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, apperrors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleCreateEnvelope executes a create action and returns the result wrapped + message
// Response: { constants.FieldMessage: successMsg, [key]: result }
func HandleCreateEnvelope(c *gin.Context, key string, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.FieldMessage: successMsg}
	if key != "" {
		response[key] = result
	}
	c.JSON(http.StatusCreated, response)
}

// HandleUpdateEnvelope executes an update action and returns the result wrapped + message
// Response: { constants.FieldMessage: successMsg, [key]: result }
func HandleUpdateEnvelope(c *gin.Context, key string, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.FieldMessage: successMsg}
	if key != "" {
		response[key] = result
	}
	c.JSON(http.StatusOK, response)
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}
