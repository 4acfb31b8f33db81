package dto

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type SessionInitRequest struct {
	FileName   string `json:"file_name" binding:"required"`
	MimeType   string `json:"mime_type"`
	Hash       string `json:"hash" binding:"required"`
	Size       int64  `json:"size" binding:"required,gt=0"`
	ChunkSize  int64  `json:"chunk_size"`
	CapturedAt string `json:"captured_at"`
}

type RetrievalRequest struct {
	FileID uint64 `json:"file_id" binding:"required"`
	Tier   string `json:"tier"`
	Async  bool   `json:"async"`
}

type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

type DescribeRequest struct {
	Description string `json:"description" binding:"max=1000"`
}
