package handler

import (
	"ColdVault/internal/apperr"
	"ColdVault/internal/dto"
	"ColdVault/internal/storage"
	"ColdVault/internal/task"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// RetrievalInitiate starts a cold-storage restore. With async set the
// request is queued and driven by the worker; otherwise the backend call
// happens inline.
func RetrievalInitiate(c *gin.Context) {
	var req dto.RetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	if req.Async {
		t, err := task.CreateRetrievalTask(currentUserID(c), req.FileID, req.Tier)
		if err != nil {
			utils.Fail(c, apperr.Wrap(apperr.BackendFailure, "enqueue retrieval", err))
			return
		}
		utils.Success(c, dto.RetrievalTaskResponse{TaskID: t.ID, Status: t.Status})
		return
	}
	receipt, err := retrievals.Initiate(c.Request.Context(), currentUserID(c), req.FileID, storage.RetrievalTier(req.Tier))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, receipt)
}

// RetrievalStatus resolves one retrieval id against the providers.
func RetrievalStatus(c *gin.Context) {
	retrievalID := c.Param("retrieval_id")
	status, err := retrievals.CheckStatus(c.Request.Context(), retrievalID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.RetrievalStatusResponse{
		RetrievalID: retrievalID,
		State:       string(status.State),
		Progress:    status.Progress,
		CompletedAt: status.CompletedAt,
		Message:     status.Message,
	})
}

// RetrievalTasks lists the caller's queued restore requests.
func RetrievalTasks(c *gin.Context) {
	tasks, err := task.ListRetrievalTasks(currentUserID(c), 50)
	if err != nil {
		utils.Fail(c, apperr.Wrap(apperr.PersistenceFailure, "list retrieval tasks", err))
		return
	}
	utils.Success(c, tasks)
}
