package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/routes/middlewares"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)

		var req createFormRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "forms.create.parse_body", err)
			return
		}

		detail, err := app.Forms.Create(r.Context(), actor, req.toService())
		if err != nil {
			httpx.WriteFailure(w, r, "forms.create", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, detail)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)

		summaries, err := app.Forms.List(r.Context(), actor)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.list", err)
			return
		}
		render.JSON(w, r, summaries)
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.get.url_param", err)
			return
		}

		detail, err := app.Forms.Get(r.Context(), actor, formID)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.get", err)
			return
		}
		render.JSON(w, r, detail)
	}
}

func UpdateFormSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.settings.url_param", err)
			return
		}

		var req formSettingsRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "forms.settings.parse_body", err)
			return
		}

		if err := app.Forms.UpdateSettings(r.Context(), actor, formID, req.toSettings()); err != nil {
			httpx.WriteFailure(w, r, "forms.settings", err)
			return
		}

		detail, err := app.Forms.Get(r.Context(), actor, formID)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.settings.reload", err)
			return
		}
		render.JSON(w, r, detail)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.delete.url_param", err)
			return
		}

		if err := app.Forms.Delete(r.Context(), actor, formID); err != nil {
			httpx.WriteFailure(w, r, "forms.delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DuplicateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.duplicate.url_param", err)
			return
		}

		// body is optional, an empty one duplicates under a derived title
		var req duplicateFormRequest
		if r.ContentLength != 0 {
			if err := decodeBody(r, &req); err != nil {
				httpx.WriteBadRequest(w, r, "forms.duplicate.parse_body", err)
				return
			}
		}

		detail, err := app.Forms.Duplicate(r.Context(), actor, formID, req.Title)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.duplicate", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, detail)
	}
}

func ListFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.submissions.url_param", err)
			return
		}

		records, err := app.Forms.Submissions(r.Context(), actor, formID)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.submissions", err)
			return
		}
		render.JSON(w, r, records)
	}
}

func GetFormSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.submission.url_param", err)
			return
		}
		submissionID, err := urlID(r, "submissionID")
		if err != nil {
			httpx.WriteBadRequest(w, r, "forms.submission.url_param", err)
			return
		}

		record, err := app.Forms.Submission(r.Context(), actor, formID, submissionID)
		if err != nil {
			httpx.WriteFailure(w, r, "forms.submission", err)
			return
		}
		render.JSON(w, r, record)
	}
}
