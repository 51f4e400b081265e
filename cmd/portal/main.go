package main

import (
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	portal "github.com/goliatone/go-portal"
)

type persistenceConfig struct {
	debug       bool
	driver      string
	server      string
	database    string
	pingTimeout time.Duration
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetDatabase() string           { return c.database }
func (c persistenceConfig) GetDSN() string                { return c.database }
func (c persistenceConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c persistenceConfig) GetOtelIdentifier() string     { return "" }

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := portal.NewConfigFromEnv()
	if cfg.SigningKey == "" {
		log.Fatal("PORTAL_SIGNING_KEY is required")
	}

	dsn := os.Getenv("PORTAL_DSN")
	if dsn == "" {
		dsn = "file:portal.db?cache=shared&mode=rwc"
	}

	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	persistence.RegisterModel((*portal.User)(nil))
	persistence.RegisterModel((*portal.Group)(nil))
	persistence.RegisterModel((*portal.GroupMember)(nil))
	persistence.RegisterModel((*portal.Task)(nil))
	persistence.RegisterModel((*portal.PasswordResetToken)(nil))
	persistence.RegisterModel((*portal.Company)(nil))
	persistence.RegisterModel((*portal.Event)(nil))

	client, err := persistence.New(persistenceConfig{
		driver:      sqliteshim.ShimName,
		database:    dsn,
		pingTimeout: 5 * time.Second,
	}, db, sqlitedialect.New())
	if err != nil {
		log.Fatalf("persistence client: %v", err)
	}

	repo := portal.NewRepositoryManager(client.DB())
	repo.MustValidate()

	auther := portal.NewAuthenticator(repo, cfg)

	resetReq := portal.NewRequestPasswordResetHandler(repo).
		WithResetLinkBase(cfg.GetResetLinkBase()).
		WithTokenTTL(time.Duration(cfg.GetResetTokenExpiration()) * time.Minute)
	redeem := portal.NewRedeemPasswordResetHandler(repo)

	tasks := portal.NewTaskService(repo)
	users := portal.NewUserService(repo)
	companies := portal.NewCompanyService(repo)
	groups := portal.NewGroupService(repo)
	events := portal.NewEventService(repo, tasks)

	controller := &portal.HTTPController{
		Auther:    auther,
		Users:     users,
		Tasks:     tasks,
		Companies: companies,
		Groups:    groups,
		Events:    events,
		ResetReq:  resetReq,
		Redeem:    redeem,
	}

	server := router.NewFiberAdapter(func(app *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName: "portal",
		})
	})

	guard := portal.NewHTTPAuthenticator(auther)
	controller.RegisterRoutes(server.Router(), guard)

	addr := os.Getenv("PORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server.Serve(addr)

	WaitExitSignal()
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
