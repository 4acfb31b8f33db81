package task

import (
	"context"
	"encoding/json"
	"time"

	"ColdVault/internal/mq"
	"ColdVault/internal/repo"
	"ColdVault/internal/service"
	"ColdVault/internal/storage"
	"ColdVault/model"
)

// RetrievalMessage is the payload sent to the worker.
type RetrievalMessage struct {
	TaskID  uint64 `json:"task_id"`
	Attempt int    `json:"attempt"`
}

// CreateRetrievalTask records a restore request and enqueues it.
func CreateRetrievalTask(userID, fileID uint64, tier string) (*model.RetrievalTask, error) {
	if tier == "" {
		tier = string(storage.TierStandard)
	}
	t := &model.RetrievalTask{
		UserID: userID,
		FileID: fileID,
		Tier:   tier,
		Status: "pending",
	}
	if err := repo.Db.Create(t).Error; err != nil {
		return nil, err
	}
	msg := RetrievalMessage{
		TaskID:  t.ID,
		Attempt: 0,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		markRetrievalTaskFailed(t.ID, err)
		return nil, err
	}
	publisher, err := mq.GetPublisher()
	if err != nil {
		markRetrievalTaskFailed(t.ID, err)
		return nil, err
	}
	if err := publisher.PublishTask(context.Background(), body); err != nil {
		markRetrievalTaskFailed(t.ID, err)
		return nil, err
	}
	return t, nil
}

// ListRetrievalTasks lists restore requests for a user.
func ListRetrievalTasks(userID uint64, limit int) ([]model.RetrievalTask, error) {
	if limit <= 0 {
		limit = 20
	}
	var tasks []model.RetrievalTask
	err := repo.Db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// ProcessRetrievalTask drives one restore request against the owning
// provider. Already initiated tasks are a no-op.
func ProcessRetrievalTask(ctx context.Context, taskID uint64) error {
	var t model.RetrievalTask
	if err := repo.Db.Where("id = ?", taskID).First(&t).Error; err != nil {
		return err
	}
	if t.Status == "initiated" {
		return nil
	}
	startedAt := time.Now()
	res := repo.Db.Model(&model.RetrievalTask{}).
		Where("id = ? AND status IN ?", taskID, []string{"pending", "retrying"}).
		Updates(map[string]interface{}{
			"status":     "running",
			"started_at": &startedAt,
			"error_msg":  "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	retrievals := service.NewRetrievals(repo.NewFileStore(repo.Db, nil), storage.Default)
	receipt, err := retrievals.Initiate(ctx, t.UserID, t.FileID, storage.RetrievalTier(t.Tier))
	if err != nil {
		return err
	}

	finishedAt := time.Now()
	return repo.Db.Model(&t).Updates(map[string]interface{}{
		"status":       "initiated",
		"provider":     receipt.Provider,
		"retrieval_id": receipt.RetrievalID,
		"estimated_at": &receipt.EstimatedAt,
		"finished_at":  &finishedAt,
	}).Error
}

func markRetrievalTaskFailed(taskID uint64, err error) {
	finishedAt := time.Now()
	_ = repo.Db.Model(&model.RetrievalTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":      "failed",
			"error_msg":   err.Error(),
			"finished_at": &finishedAt,
		}).Error
}
