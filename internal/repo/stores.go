package repo

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/service"
	"ColdVault/model"
	"ColdVault/utils"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fileCacheTTL = 10 * time.Minute

// FileStore is the gorm-backed implementation of the service layer's
// file persistence contract, with read-through caching on the two hot
// lookups.
type FileStore struct {
	db    *gorm.DB
	cache utils.Cache
}

func NewFileStore(db *gorm.DB, cache utils.Cache) *FileStore {
	return &FileStore{db: db, cache: cache}
}

func (s *FileStore) Create(ctx context.Context, f *model.File) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicateKeyError(err) {
			return service.ErrHashExists
		}
		return err
	}
	return nil
}

func (s *FileStore) GetByID(ctx context.Context, id uint64) (*model.File, error) {
	key := utils.BuildCacheKey(utils.CacheKeyFile, id)
	if s.cache != nil {
		var cached model.File
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	var f model.File
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "file %d not found", id)
		}
		return nil, err
	}
	s.cachePut(ctx, key, &f)
	return &f, nil
}

func (s *FileStore) GetByHash(ctx context.Context, hash string) (*model.File, error) {
	key := utils.BuildCacheKey(utils.CacheKeyFileHash, hash)
	if s.cache != nil {
		var cached model.File
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	var f model.File
	if err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "file with hash %s not found", hash)
		}
		return nil, err
	}
	s.cachePut(ctx, key, &f)
	return &f, nil
}

func (s *FileStore) Update(ctx context.Context, f *model.File) error {
	if err := s.db.WithContext(ctx).Save(f).Error; err != nil {
		return err
	}
	s.cacheDrop(ctx, f)
	return nil
}

func (s *FileStore) ListByOwner(ctx context.Context, userID uint64, page, pageSize int) ([]model.File, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.File{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var files []model.File
	err := q.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// searchOrderColumns whitelists sortable columns for Search.
var searchOrderColumns = map[string]string{
	"created_at":  "created_at",
	"captured_at": "captured_at",
	"size":        "size",
	"name":        "name",
}

func (s *FileStore) Search(ctx context.Context, userID uint64, q service.FileSearch) ([]model.File, int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.File{}).Where("user_id = ?", userID)
	if q.Query != "" {
		like := "%" + q.Query + "%"
		tx = tx.Where("name LIKE ? OR original_name LIKE ? OR description LIKE ?", like, like, like)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.State != "" {
		tx = tx.Where("status_state = ?", q.State)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "id DESC"
	if col, ok := searchOrderColumns[q.OrderBy]; ok {
		if q.OrderDesc {
			order = col + " DESC"
		} else {
			order = col + " ASC"
		}
	}
	var files []model.File
	err := tx.Order(order).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func (s *FileStore) Transaction(ctx context.Context, fn func(service.FileStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FileStore{db: tx, cache: s.cache})
	})
}

func (s *FileStore) cachePut(ctx context.Context, key string, f *model.File) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, f, fileCacheTTL); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

func (s *FileStore) cacheDrop(ctx context.Context, f *model.File) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{
		utils.BuildCacheKey(utils.CacheKeyFile, f.ID),
		utils.BuildCacheKey(utils.CacheKeyFileHash, f.Hash),
	} {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("cache delete %s: %v", key, err)
		}
	}
}

// SessionStore is the gorm-backed implementation of upload session
// persistence. Chunk inserts are idempotent via the unique
// (session_id, chunk_index) index.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess *model.UploadSession) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	var sess model.UploadSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "upload session %s not found", sessionID)
		}
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) FindOpenByFile(ctx context.Context, userID, fileID uint64) (*model.UploadSession, error) {
	var sess model.UploadSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND file_id = ? AND completed_at IS NULL", userID, fileID).
		Order("id DESC").
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "no open session for file %d", fileID)
		}
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) AddChunk(ctx context.Context, chunk *model.SessionChunk) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(chunk).Error
}

func (s *SessionStore) Chunks(ctx context.Context, sessionID string) ([]model.SessionChunk, error) {
	var chunks []model.SessionChunk
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *SessionStore) Update(ctx context.Context, sess *model.UploadSession) error {
	return s.db.WithContext(ctx).Save(sess).Error
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.SessionChunk{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&model.UploadSession{}).Error
	})
}

// UserStore is the gorm-backed account store with read-through caching
// on id lookups.
type UserStore struct {
	db    *gorm.DB
	cache utils.Cache
}

func NewUserStore(db *gorm.DB, cache utils.Cache) *UserStore {
	return &UserStore{db: db, cache: cache}
}

func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *UserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	key := utils.BuildCacheKey(utils.CacheKeyUserInfo, id)
	if s.cache != nil {
		var cached model.User
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user %d not found", id)
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &u, fileCacheTTL); err != nil {
			log.Printf("cache set %s: %v", key, err)
		}
	}
	return &u, nil
}

func (s *UserStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("user_name = ?", name).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user %s not found", name)
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user with email %s not found", email)
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Update(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return err
	}
	if s.cache != nil {
		key := utils.BuildCacheKey(utils.CacheKeyUserInfo, u.ID)
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("cache delete %s: %v", key, err)
		}
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
