package http

import (
	"strings"
	"time"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/admin"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/api"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/contrib/fiberzerolog"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp/reuseport"
)

type App struct {
	app *fiber.App
}

func NewServer(engine *services.Engine) *App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		EnableIPValidation:    true,
		ServerHeader:          "Hypernet.Ponder",
		AppName:               "Hypernet.Ponder",
		ProxyHeader:           fiber.HeaderXForwardedFor,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:             16 * 1024 * 1024,
		EnablePrintRoutes:     viper.GetBool("debug.print_routes"),
	})

	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Authorization, Content-Type, X-Account-Id, X-Admin-Key",
		AllowCredentials: false,
		MaxAge:           864000,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodHead,
			fiber.MethodOptions,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
		}, ","),
	}))

	if limit := viper.GetInt("http.rate_limit"); limit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        limit,
			Expiration: 60 * time.Second,
		}))
	}

	app.Use(fiberzerolog.New(fiberzerolog.Config{
		Logger: &log.Logger,
	}))

	api.MapControllers(app, "/api", engine)
	admin.MapControllers(app, "/admin", engine)

	return &App{app}
}

func (v *App) Listen() {
	bind := viper.GetString("bind")
	if viper.GetBool("http.reuseport") {
		ln, err := reuseport.Listen("tcp4", bind)
		if err != nil {
			log.Fatal().Err(err).Msg("An error occurred when listening with reuseport.")
		}
		if err := v.app.Listener(ln); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting server...")
		}
		return
	}

	if err := v.app.Listen(bind); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting server...")
	}
}

func (v *App) Shutdown() error {
	return v.app.Shutdown()
}
