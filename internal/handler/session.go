package handler

import (
	"strconv"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/dto"
	"ColdVault/internal/service"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// SessionInit opens (or resumes) a chunked upload session.
func SessionInit(c *gin.Context) {
	var req dto.SessionInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	in := service.OpenSessionInput{
		UserID:    currentUserID(c),
		FileName:  req.FileName,
		MimeType:  req.MimeType,
		Hash:      req.Hash,
		TotalSize: req.Size,
		ChunkSize: req.ChunkSize,
	}
	if req.CapturedAt != "" {
		if ts, err := time.Parse(time.RFC3339, req.CapturedAt); err == nil {
			in.CapturedAt = &ts
		}
	}
	result, err := sessions.Open(c.Request.Context(), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}

// SessionChunk stages one chunk. The index comes from the "index" form
// field and the bytes from the "chunk" file field.
func SessionChunk(c *gin.Context) {
	sessionID := c.Param("session_id")
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "chunk index missing or not a number"))
		return
	}
	header, err := c.FormFile("chunk")
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "chunk field missing: %v", err))
		return
	}
	src, err := header.Open()
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "open chunk: %v", err))
		return
	}
	defer src.Close()

	result, err := sessions.UploadChunk(c.Request.Context(), currentUserID(c), sessionID, index, src, header.Size)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}

// SessionComplete merges the staged chunks and finalizes the file.
func SessionComplete(c *gin.Context) {
	result, err := sessions.Complete(c.Request.Context(), currentUserID(c), c.Param("session_id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}

// SessionStatus reports a session's uploaded chunks and progress.
func SessionStatus(c *gin.Context) {
	result, err := sessions.Status(c.Request.Context(), currentUserID(c), c.Param("session_id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}
