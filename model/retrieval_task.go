package model

import "time"

// RetrievalTask is one asynchronous cold-storage restore request. The API
// records the task and enqueues it; the worker drives the backend call and
// fills in the backend's retrieval token and estimate. Status polling after
// initiation stays caller-driven against the backend token.
type RetrievalTask struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint64 `gorm:"column:user_id;index;not null" json:"user_id"`
	FileID uint64 `gorm:"column:file_id;index;not null" json:"file_id"`

	Tier string `gorm:"column:tier;type:varchar(16);not null" json:"tier"` // bulk / standard / expedited

	Provider    string     `gorm:"column:provider;type:varchar(64)" json:"provider"`
	RetrievalID string     `gorm:"column:retrieval_id;type:varchar(255);index" json:"retrieval_id"`
	EstimatedAt *time.Time `gorm:"column:estimated_at" json:"estimated_at"`

	Status      string     `gorm:"column:status;type:varchar(32);index;not null" json:"status"` // pending / running / initiated / retrying / failed
	ErrorMsg    string     `gorm:"column:error_msg;type:text" json:"error_msg"`
	RetryCount  int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at" json:"next_retry_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (RetrievalTask) TableName() string {
	return "retrieval_task"
}
