package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/relayerp/relay/internal/api/v1"
	"github.com/relayerp/relay/internal/api/ws"
	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, bus *command.Bus) {
	v1.RegisterOrganizationRoutes(api, store, bus)
	v1.RegisterTodoRoutes(api, store, bus)
}

func registerAuditRoutes(api huma.API, store *postgres.Store, bus *command.Bus) {
	v1.RegisterAuditRoutes(api, store, bus)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/activity", hub.ServeActivity)
}
