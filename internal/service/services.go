package service

import (
	"log/slog"

	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/service/admin"
	"github.com/kirinyoku/tix-storefront/internal/service/catalog"
	"github.com/kirinyoku/tix-storefront/internal/service/checkout"
	"github.com/kirinyoku/tix-storefront/internal/service/orders"
	"github.com/kirinyoku/tix-storefront/internal/service/organizer"
	"github.com/kirinyoku/tix-storefront/internal/service/theme"
	"github.com/kirinyoku/tix-storefront/internal/session"
)

type Services struct {
	Session   *session.Manager
	Catalog   *catalog.Service
	Checkout  *checkout.Service
	Admin     *admin.Service
	Organizer *organizer.Service
	Orders    *orders.Service
	Theme     *theme.Service
}

type Config struct {
	Checkout  checkout.Config
	Organizer organizer.Config
}

type Deps struct {
	Store   repository.Store
	Locker  repository.Locker
	Gateway *gateway.Client
	Admins  session.AdminVerifier
	Logger  *slog.Logger
}

func NewServices(deps Deps, cfg Config) *Services {
	adminSvc := admin.New(deps.Store, deps.Logger)

	return &Services{
		Session:   session.New(deps.Store, deps.Gateway, deps.Admins, deps.Logger),
		Catalog:   catalog.New(deps.Gateway, adminSvc, deps.Logger),
		Checkout:  checkout.New(deps.Store, deps.Locker, deps.Gateway, deps.Logger, cfg.Checkout),
		Admin:     adminSvc,
		Organizer: organizer.New(deps.Gateway, deps.Store, deps.Logger, cfg.Organizer),
		Orders:    orders.New(deps.Gateway),
		Theme:     theme.New(deps.Store),
	}
}
