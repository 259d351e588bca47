package routes

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/routes/middlewares"
	"github.com/formmind/formmind/submit"
)

// PublicGetForm serves a published form to respondents by its public token.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		form, err := app.Intake.ResolveToken(r.Context(), token)
		if err != nil {
			httpx.WriteFailure(w, r, "public.get_form", err)
			return
		}
		render.JSON(w, r, form)
	}
}

// PublicSubmitForm records one answer set. Authenticated respondents are
// identified by token claims, guests by client IP.
func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		form, err := app.Intake.ResolveToken(r.Context(), token)
		if err != nil {
			httpx.WriteFailure(w, r, "public.submit.resolve", err)
			return
		}

		var req submitRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "public.submit.parse_body", err)
			return
		}
		answers, err := req.answersByID()
		if err != nil {
			httpx.WriteBadRequest(w, r, "public.submit.answers", err)
			return
		}

		identity := submit.Identity{}
		if actor, ok := middlewares.Actor(r); ok {
			identity.UserID = actor.UserID
		} else {
			identity.GuestToken = clientIP(r)
		}

		sub, err := app.Intake.Submit(r.Context(), submit.Request{
			FormID:           form.ID,
			Answers:          answers,
			CompletionTimeMS: req.CompletionTimeMS,
		}, identity)
		if err != nil {
			httpx.WriteFailure(w, r, "public.submit", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sub)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
