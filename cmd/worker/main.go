package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ColdVault/config"
	"ColdVault/internal/repo"
	"ColdVault/internal/storage"
	"ColdVault/internal/worker"
)

func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitProviders()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("retrieval worker started")
	if err := worker.RunRetrievalWorker(ctx); err != nil {
		log.Fatalf("retrieval worker stopped: %v", err)
	}
}
