package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent endpoints, addressed by public token
	api.Group(func(r chi.Router) {
		r.Use(middlewares.MaybeAuthenticated(app.Config))
		r.Get("/public/forms/{token}", PublicGetForm(app))
		r.Post("/public/forms/{token}/submissions", PublicSubmitForm(app))
	})

	// authoring endpoints
	api.Route("/forms", func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.Config))

		r.Post("/", CreateForm(app))
		r.Get("/", ListForms(app))
		r.Get(`/{id:^\d+$}`, GetForm(app))
		r.Patch(`/{id:^\d+$}`, UpdateFormSettings(app))
		r.Delete(`/{id:^\d+$}`, DeleteForm(app))
		r.Post(`/{id:^\d+$}/duplicate`, DuplicateForm(app))
		r.Get(`/{id:^\d+$}/submissions`, ListFormSubmissions(app))
		r.Get(`/{id:^\d+$}/submissions/{submissionID:^\d+$}`, GetFormSubmission(app))
		r.Post(`/{id:^\d+$}/template`, SaveFormAsTemplate(app))

		r.Post(`/{id:^\d+$}/questions`, AddQuestion(app))
		r.Put(`/{id:^\d+$}/questions/order`, ReorderQuestions(app))
		r.Put(`/{id:^\d+$}/questions/{questionID:^\d+$}`, UpdateQuestion(app))
		r.Delete(`/{id:^\d+$}/questions/{questionID:^\d+$}`, DeleteQuestion(app))
	})

	api.Route("/templates", func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.Config))

		r.Get("/", ListTemplates(app))
		r.Post(`/{id:^\d+$}/instantiate`, InstantiateTemplate(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
