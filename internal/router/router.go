// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router wires the HTTP routes to their handlers.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"itblog/internal/handlers"
	"itblog/internal/middleware"
	"itblog/internal/session"
)

// commentRateLimit allows a handful of comment submissions per IP per
// minute. Enough for a human, not for a bot.
const (
	commentRateLimit  = 5
	commentRateWindow = time.Minute
)

// New builds the application router.
func New(public *handlers.PublicHandler, admin *handlers.AdminHandler, auth *handlers.AuthHandler, sessions *session.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessions))

	r.Get("/health", handlers.Health)

	r.Get("/", public.Welcome)
	r.Get("/blog", public.Index)
	r.Get("/blog/{slug}", public.Show)

	commentLimiter := middleware.NewRateLimiter(commentRateLimit, commentRateWindow)
	r.With(commentLimiter.Middleware).Post("/blog/{slug}/comments", public.SubmitComment)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", admin.Dashboard)

			r.Get("/posts", admin.ListPosts)
			r.Post("/posts", admin.CreatePost)
			r.Get("/posts/{id}", admin.ShowPost)
			r.Put("/posts/{id}", admin.UpdatePost)
			r.Delete("/posts/{id}", admin.DeletePost)

			r.Get("/categories", admin.ListCategories)
			r.Post("/categories", admin.CreateCategory)
			r.Put("/categories/{id}", admin.UpdateCategory)
			r.Delete("/categories/{id}", admin.DeleteCategory)

			r.Get("/tags", admin.ListTags)
			r.Post("/tags", admin.CreateTag)
			r.Put("/tags/{id}", admin.UpdateTag)
			r.Delete("/tags/{id}", admin.DeleteTag)

			// Moderation is admin-only; editors manage their own content.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/comments", admin.ListComments)
				r.Put("/comments/{id}/status", admin.ModerateComment)
				r.Delete("/comments/{id}", admin.DeleteComment)
			})
		})
	})

	return r
}
