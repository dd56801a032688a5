package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/dummyjson"
	"github.com/xenking/storefront/internal/session"
)

// Login validates the submitted credentials, exchanges them for a token and
// stores it on the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	creds := auth.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	token, err := auth.Login(ctx, h.auth, creds)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrCredentialsRequired):
		h.loginError(w, r, http.StatusUnprocessableEntity, creds.Username, msgCredentialsRequired)
		return
	default:
		fields := []zap.Field{zap.Error(err)}
		var statusErr *dummyjson.StatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.Int("upstream_status", statusErr.Code))
		}
		lg.Warn("Login failed", fields...)
		h.loginError(w, r, http.StatusUnauthorized, creds.Username, msgLoginFailed)
		return
	}

	s := session.From(ctx)
	if s == nil {
		if s, err = h.sessions.Create(w); err != nil {
			h.renderError(w, r, err)
			return
		}
	}
	s.SetToken(token)
	lg.Info("Logged in")

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) loginError(w http.ResponseWriter, r *http.Request, status int, username, msg string) {
	v := loginView{Username: username, Error: msg}
	if isHTMX(r) {
		h.renderFragment(w, r, status, "login_error", v)
		return
	}
	h.render(w, r, status, "login", v)
}
