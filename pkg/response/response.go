package response

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

// Envelope is the JSON body of every non-file response.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON sends data in the envelope. Only the first meta map is used.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, data, meta...)
}

// Error converts err to an *appErrors.Error and writes it with its HTTP status.
// Wrapped causes stay out of the body.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	noStore(c)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// Attachment sends body as a downloadable file. headers are added before the body.
func Attachment(c *gin.Context, filename, contentType string, body []byte, headers map[string]string) {
	setAttachmentHeaders(c, filename, headers)
	c.Data(http.StatusOK, contentType, body)
}

// AttachmentStream is Attachment for a reader of known size.
func AttachmentStream(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	setAttachmentHeaders(c, filename, nil)
	c.DataFromReader(http.StatusOK, size, contentType, r, nil)
}

func setAttachmentHeaders(c *gin.Context, filename string, headers map[string]string) {
	noStore(c)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	for key, value := range headers {
		c.Header(key, value)
	}
}
