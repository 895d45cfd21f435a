package ui

import (
	"github.com/go-chi/chi/v5"
)

// mediaKinds matches the kinds that have detail pages.
const mediaKinds = "{kind:movies|series}"

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Public routes (no auth required).
	r.Group(func(r chi.Router) {
		r.Use(ui.OptionalAuthMiddleware)

		r.Get("/", ui.HandleHome)
		r.Get("/login", ui.HandleLogin)
		r.Post("/login", ui.HandleLoginPost)
		r.Get("/logout", ui.HandleLogout)
		r.Get("/browse/{kind}", ui.HandleBrowse)
		r.Get("/"+mediaKinds+"/{id}", ui.HandleDetail)
	})

	// Signed-in routes.
	r.Group(func(r chi.Router) {
		r.Use(ui.AuthMiddleware)

		r.Post("/"+mediaKinds+"/{id}/reviews", ui.HandleReviewPost)
		r.Post("/"+mediaKinds+"/{id}/bookmark", ui.HandleBookmarkToggle)
		r.Post("/reviews/{id}/vote", ui.HandleVote)
		r.Get("/bookmarks", ui.HandleBookmarks)

		// Admin routes (admin role required).
		r.Route("/admin", func(r chi.Router) {
			r.Use(ui.AdminMiddleware)
			r.Get("/", ui.HandleAdminDashboard)
			r.Post("/cache/invalidate", ui.HandleAdminInvalidate)
			r.Get("/{kind}", ui.HandleAdminGrid)
			r.Post("/{kind}/{id}/delete", ui.HandleAdminDelete)
		})
	})
}
