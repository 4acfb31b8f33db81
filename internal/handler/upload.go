package handler

import (
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/service"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// Upload ingests one file in a single request. The multipart field "file"
// carries the bytes; optional form fields tune placement.
func Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file field missing: %v", err))
		return
	}
	src, err := header.Open()
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "open upload: %v", err))
		return
	}
	defer src.Close()

	in := service.UploadInput{
		UserID:     currentUserID(c),
		Reader:     src,
		FileName:   header.Filename,
		MimeType:   header.Header.Get("Content-Type"),
		Size:       header.Size,
		Preference: c.PostForm("provider"),
	}
	if raw := c.PostForm("captured_at"); raw != "" {
		if ts, perr := time.Parse(time.RFC3339, raw); perr == nil {
			in.CapturedAt = &ts
		}
	}

	result, err := uploader.Upload(c.Request.Context(), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}
