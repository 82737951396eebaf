package app

import (
	"github.com/forecastly/forecastly/internal/config"
	"github.com/forecastly/forecastly/internal/event_bus"
	"github.com/forecastly/forecastly/internal/utils"
	"github.com/forecastly/forecastly/pkg/bank"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/forecast"
	"github.com/forecastly/forecastly/pkg/simulation"
	"github.com/forecastly/forecastly/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	EventService event.Service
	EventHandler *event.Handler

	BankService bank.Service
	BankHandler *bank.Handler

	ForecastService *forecast.ServiceImpl
	CsvRenderer     *simulation.CsvRenderer
	ForecastHandler *forecast.Handler
}

// Repositories groups the storage layer so tests can swap in stubs.
type Repositories struct {
	Users  user.Repo
	Events event.Repository
	Banks  bank.Repository
}

// BuildDependencies initializes and wires all application services and handlers on Postgres.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	return Wire(Repositories{
		Users:  user.NewUserRepo(db),
		Events: event.NewEventRepo(db),
		Banks:  bank.NewRepository(db),
	}, cfg, &utils.SystemClock{})
}

func Wire(repos Repositories, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	forecastCfg, err := forecast.NewConfig(cfg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = clock

	deps.UserService = user.NewUserService(repos.Users, cfg.Forecast.Currency)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.EventService = event.NewEventService(repos.Events)
	deps.EventHandler = event.NewEventHandler(deps.EventService)

	deps.BankService = bank.NewService(repos.Banks, deps.EventBus, deps.Clock)
	deps.BankHandler = bank.NewHandler(deps.BankService)

	deps.ForecastService = forecast.NewService(deps.EventService, deps.BankService, forecastCfg, deps.Clock, deps.EventBus)
	deps.CsvRenderer = simulation.NewCsvRenderer()
	deps.ForecastHandler = forecast.NewHandler(deps.ForecastService, deps.CsvRenderer, forecastCfg)

	return deps, nil
}
