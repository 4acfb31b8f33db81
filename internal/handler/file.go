package handler

import (
	"strconv"

	"ColdVault/internal/apperr"
	"ColdVault/internal/dto"
	"ColdVault/internal/service"
	"ColdVault/model"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// ListFiles pages through the caller's files, newest first.
func ListFiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	files, total, err := library.List(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		utils.Fail(c, apperr.Wrap(apperr.PersistenceFailure, "list files", err))
		return
	}
	utils.Success(c, dto.FileListResponse{Items: files, Total: total, Page: page, PageSize: pageSize})
}

// SearchFiles filters the caller's files by text, category and state.
func SearchFiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	q := service.FileSearch{
		Query:     c.Query("q"),
		Category:  model.FileCategory(c.Query("category")),
		State:     model.UploadState(c.Query("state")),
		Page:      page,
		PageSize:  pageSize,
		OrderBy:   c.Query("order_by"),
		OrderDesc: c.DefaultQuery("order", "desc") == "desc",
	}
	files, total, err := library.Search(c.Request.Context(), currentUserID(c), q)
	if err != nil {
		utils.Fail(c, apperr.Wrap(apperr.PersistenceFailure, "search files", err))
		return
	}
	utils.Success(c, dto.FileListResponse{Items: files, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// FileDetail returns one file record.
func FileDetail(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	f, err := library.Get(c.Request.Context(), currentUserID(c), fileID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, f)
}

// TagFile appends a label to a file.
func TagFile(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	var req dto.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	f, err := library.Tag(c.Request.Context(), currentUserID(c), fileID, req.Tag)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, f)
}

// DescribeFile sets a file's description.
func DescribeFile(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "file id not a number"))
		return
	}
	var req dto.DescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	f, err := library.Describe(c.Request.Context(), currentUserID(c), fileID, req.Description)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, f)
}
