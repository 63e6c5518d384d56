package config

import (
	"fmt"

	"community-service/configs"
	"community-service/internal/auth"
	"community-service/internal/cache"
	"community-service/internal/repository"
	"community-service/internal/services"
	"community-service/internal/storage"
	"community-service/internal/websocket"
	"community-service/pkg/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Dependencies dibangun sekali saat startup lalu diteruskan ke router.
// Tidak ada state global.
type Dependencies struct {
	Config   configs.Config
	DB       *sqlx.DB
	Validate *validator.Validate
	Tokens   *auth.TokenService
	Files    *storage.Local
	Hub      *websocket.Hub

	Accounts  *services.AccountService
	Companies *services.CompanyService
	Staff     *services.StaffService
	Clients   *services.ClientService
	Scheduler *services.Scheduler
	Media     *services.MediaService
}

// NewDependencies wires repositories and services. rdb may be nil, in which
// case task details are not cached.
func NewDependencies(cfg configs.Config, db *sqlx.DB, rdb *redis.Client) (*Dependencies, error) {
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init upload dir: %w", err)
	}
	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	var taskCache cache.TaskCache = cache.Nop{}
	if rdb != nil {
		taskCache = cache.NewRedisTaskCache(rdb, cfg.CacheTTL)
	}

	store := repository.NewStore(db)
	accounts := repository.NewAccountRepository(store)
	companies := repository.NewCompanyRepository(store)
	staff := repository.NewStaffRepository(store)
	clients := repository.NewClientRepository(store)
	tasks := repository.NewTaskRepository(store)
	media := repository.NewMediaRepository(store)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	hub := websocket.NewHub()

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Validate: validator.New(),
		Tokens:   tokens,
		Files:    files,
		Hub:      hub,

		Accounts:  services.NewAccountService(accounts, staff, clients, tasks, tokens, files, taskCache),
		Companies: services.NewCompanyService(companies, staff, clients, files, taskCache),
		Staff:     services.NewStaffService(staff, accounts, companies, tasks, files, cipher, taskCache),
		Clients:   services.NewClientService(clients, staff, accounts, companies, tasks, files, taskCache),
		Scheduler: services.NewScheduler(tasks, staff, clients, taskCache, hub, files),
		Media:     services.NewMediaService(media, tasks, files, taskCache, hub),
	}, nil
}
