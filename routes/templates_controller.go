package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/routes/middlewares"
)

var errInvalidVisibility = errors.New("visibility must be private or tenant")

func SaveFormAsTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "templates.save.url_param", err)
			return
		}

		var req saveTemplateRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "templates.save.parse_body", err)
			return
		}

		tpl, err := app.Forms.SaveAsTemplate(r.Context(), actor, formID,
			req.Name, req.Category, model.Visibility(req.Visibility))
		if err != nil {
			httpx.WriteFailure(w, r, "templates.save", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, tpl)
	}
}

func ListTemplates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)

		visibility := r.URL.Query().Get("visibility")
		switch visibility {
		case "", "private", "tenant":
		default:
			httpx.WriteBadRequest(w, r, "templates.list.visibility",
				errInvalidVisibility)
			return
		}

		templates, err := app.Forms.ListTemplates(r.Context(), actor, visibility)
		if err != nil {
			httpx.WriteFailure(w, r, "templates.list", err)
			return
		}
		render.JSON(w, r, templates)
	}
}

func InstantiateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		templateID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "templates.instantiate.url_param", err)
			return
		}

		// body is optional, an empty one names the form after the template
		var req instantiateTemplateRequest
		if r.ContentLength != 0 {
			if err := decodeBody(r, &req); err != nil {
				httpx.WriteBadRequest(w, r, "templates.instantiate.parse_body", err)
				return
			}
		}

		detail, err := app.Forms.InstantiateTemplate(r.Context(), actor, templateID, req.Title)
		if err != nil {
			httpx.WriteFailure(w, r, "templates.instantiate", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, detail)
	}
}
