package main

import (
	"ColdVault/config"
	"ColdVault/internal/handler"
	"ColdVault/internal/repo"
	"ColdVault/internal/service"
	"ColdVault/internal/storage"
	"ColdVault/router"
	"ColdVault/utils"
	"log"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitProviders()

	cache := utils.GetCacheManager().Cache()
	files := repo.NewFileStore(repo.Db, cache)
	sessions := repo.NewSessionStore(repo.Db)
	accounts := repo.NewUserStore(repo.Db, cache)

	selector, err := service.NewSelector(storage.Default, storage.TierProviders())
	if err != nil {
		log.Fatal("init provider selector fail: ", err)
	}
	sink := service.LogEventSink{}

	handler.Init(
		service.NewUsers(accounts, cache),
		service.NewUploader(files, service.SHA256Hasher{}, selector, storage.Default, service.ImageThumbnailer{}, sink),
		service.NewSessions(files, sessions, storage.Default, selector, repo.NewLockManager(repo.Redis), sink),
		service.NewRetrievals(files, storage.Default),
		service.NewDownloads(files, storage.Default),
		service.NewLibrary(files),
		storage.Default,
	)

	r := router.InitRouter()
	r.Run(":8000")
}
