package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/log"
)

// Login exchanges basic auth credentials for a bearer token pair.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			logStatus(w, http.StatusUnauthorized, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

var reRefreshHeader = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Refresh exchanges a refresh token for a fresh token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := reRefreshHeader.FindStringSubmatch(auth)
		if len(match) == 0 {
			logStatus(w, http.StatusUnauthorized, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			logStatus(w, http.StatusInternalServerError, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

func logStatus(w http.ResponseWriter, status int, code string) {
	log.Debug(code)
	http.Error(w, http.StatusText(status), status)
}
