package handler

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// Download streams a file's bytes through the API process.
func Download(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	f, rc, err := downloads.Open(c.Request.Context(), currentUserID(c), fileID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", utils.SanitizeHeaderFilename(f.OriginalName)))
	c.Header("Content-Type", f.Type.Mime)
	c.Header("Content-Length", strconv.FormatInt(f.Size.Bytes, 10))
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// headers are gone, nothing more to tell the client
		return
	}
}

// DownloadURL mints a presigned direct link for instant-access content.
func DownloadURL(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	expiry := 15 * time.Minute
	if raw := c.Query("expiry"); raw != "" {
		if d, perr := time.ParseDuration(raw); perr == nil && d > 0 && d <= 24*time.Hour {
			expiry = d
		}
	}
	url, err := downloads.PresignedURL(c.Request.Context(), currentUserID(c), fileID, expiry)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"url": url, "expires_in": expiry.String()})
}

// Thumbnail streams a file's preview image.
func Thumbnail(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	rc, err := downloads.OpenThumbnail(c.Request.Context(), currentUserID(c), fileID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "image/jpeg")
	_, _ = io.Copy(c.Writer, rc)
}
