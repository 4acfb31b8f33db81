package handler

import (
	"ColdVault/internal/service"
	"ColdVault/internal/storage"

	"github.com/gin-gonic/gin"
)

// Package-level service instances, wired once at startup by Init.
var (
	users      *service.Users
	uploader   *service.Uploader
	sessions   *service.Sessions
	retrievals *service.Retrievals
	downloads  *service.Downloads
	library    *service.Library
	registry   *storage.Registry
)

// Init wires the handlers to their services.
func Init(
	u *service.Users,
	up *service.Uploader,
	sess *service.Sessions,
	retr *service.Retrievals,
	dl *service.Downloads,
	lib *service.Library,
	reg *storage.Registry,
) {
	users = u
	uploader = up
	sessions = sess
	retrievals = retr
	downloads = dl
	library = lib
	registry = reg
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64("user_id")
}
