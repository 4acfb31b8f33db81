package dto

import (
	"time"

	"ColdVault/model"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type FileListResponse struct {
	Items    []model.File `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type RetrievalTaskResponse struct {
	TaskID uint64 `json:"task_id"`
	Status string `json:"status"`
}

type RetrievalStatusResponse struct {
	RetrievalID string     `json:"retrieval_id"`
	State       string     `json:"state"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Message     string     `json:"message,omitempty"`
}

type ProviderHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency"`
	Message string `json:"message,omitempty"`
}
