package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/auth"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/config"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/registration"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ImageStorage is the slice of the object store the image handlers need.
type ImageStorage interface {
	Upload(ctx context.Context, folder, filename string, reader io.Reader) (string, error)
	Put(ctx context.Context, folder, filename string, reader io.Reader) error
	Get(ctx context.Context, folder, filename string) ([]byte, string, error)
	Delete(ctx context.Context, folder, filename string) error
	FindAvatar(ctx context.Context, userID int64) (string, error)
}

type Api struct {
	Config config.Config
	Router *chi.Mux

	store        *store.Store
	auth         *auth.Service
	tokens       *auth.TokenManager
	registration *registration.Workflow
	images       ImageStorage
}

func NewApi(cfg config.Config, st *store.Store, authSvc *auth.Service, tokens *auth.TokenManager, reg *registration.Workflow, images ImageStorage) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, fmt.Errorf("must have at least a port to start API")
	}

	api := &Api{
		Config:       cfg,
		Router:       chi.NewRouter(),
		store:        st,
		auth:         authSvc,
		tokens:       tokens,
		registration: reg,
		images:       images,
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	requireAccess := auth.RequireToken(api.tokens, auth.ValidateOptions{})
	requireRefresh := auth.RequireToken(api.tokens, auth.ValidateOptions{RequireRefresh: true})

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/register", api.RegisterHandler)
		r.Post("/login", api.LoginHandler)
		r.Get("/user_activate/{activation_id}", api.ActivateHandler)
		r.Get("/activation/user/{user_id}", api.ActivationListHandler)
		r.Post("/activation/user/{user_id}", api.ActivationResendHandler)

		r.Get("/store/{name}", api.StoreGetHandler)
		r.Post("/store/{name}", api.StoreCreateHandler)
		r.Delete("/store/{name}", api.StoreDeleteHandler)
		r.Get("/stores", api.StoreListHandler)

		// Refresh takes a refresh token, everything below an access token.
		r.Group(func(r chi.Router) {
			r.Use(requireRefresh)
			r.Post("/refresh", api.RefreshHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAccess)

			r.Post("/logout", api.LogoutHandler)
			r.Get("/user/{user_id}", api.UserGetHandler)
			r.Delete("/user/{user_id}", api.UserDeleteHandler)

			r.Get("/item/{name}", api.ItemGetHandler)
			r.Post("/item/{name}", api.ItemCreateHandler)
			r.Put("/item/{name}", api.ItemPutHandler)
			r.Delete("/item/{name}", api.ItemDeleteHandler)
			r.Get("/items", api.ItemListHandler)

			r.Post("/upload/image", api.ImageUploadHandler)
			r.Get("/image/{filename}", api.ImageGetHandler)
			r.Delete("/image/{filename}", api.ImageDeleteHandler)
			r.Put("/upload/avatar", api.AvatarPutHandler)
			r.Get("/avatar/{user_id}", api.AvatarGetHandler)
		})
	})
}

func (api *Api) Serve() {
	log.Printf("Starting API server on 0.0.0.0:%d", api.Config.APIPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort), api.Router))
}
