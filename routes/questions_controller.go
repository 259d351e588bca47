package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/routes/middlewares"
)

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.add.url_param", err)
			return
		}

		var req questionRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "questions.add.parse_body", err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.add.field_type", err)
			return
		}

		question, err := app.Forms.AddQuestion(r.Context(), actor, formID, in)
		if err != nil {
			httpx.WriteFailure(w, r, "questions.add", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.update.url_param", err)
			return
		}
		questionID, err := urlID(r, "questionID")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.update.url_param", err)
			return
		}

		var req questionRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "questions.update.parse_body", err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.update.field_type", err)
			return
		}

		question, err := app.Forms.UpdateQuestion(r.Context(), actor, formID, questionID, in)
		if err != nil {
			httpx.WriteFailure(w, r, "questions.update", err)
			return
		}
		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.delete.url_param", err)
			return
		}
		questionID, err := urlID(r, "questionID")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.delete.url_param", err)
			return
		}

		if err := app.Forms.DeleteQuestion(r.Context(), actor, formID, questionID); err != nil {
			httpx.WriteFailure(w, r, "questions.delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middlewares.Actor(r)
		formID, err := urlID(r, "id")
		if err != nil {
			httpx.WriteBadRequest(w, r, "questions.reorder.url_param", err)
			return
		}

		var req reorderRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteBadRequest(w, r, "questions.reorder.parse_body", err)
			return
		}

		if err := app.Forms.ReorderQuestions(r.Context(), actor, formID, req.QuestionIDs); err != nil {
			httpx.WriteFailure(w, r, "questions.reorder", err)
			return
		}

		detail, err := app.Forms.Get(r.Context(), actor, formID)
		if err != nil {
			httpx.WriteFailure(w, r, "questions.reorder.reload", err)
			return
		}
		render.JSON(w, r, detail.Questions)
	}
}
