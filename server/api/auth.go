// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/swingcharts/swing/accounts"
)

// SessionCookie is the name of the cookie holding the session token.
const SessionCookie = "swing_session"

type userKey struct{}

// withUser returns a context that carries the authenticated user.
func withUser(ctx context.Context, user accounts.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// userFromContext returns the authenticated user of a request.
func userFromContext(ctx context.Context) (accounts.User, bool) {
	user, ok := ctx.Value(userKey{}).(accounts.User)
	return user, ok
}

// sessionToken returns the token from the session cookie or the bearer authorization header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// authenticate resolves the user of the request session.
func (server *Server) authenticate(r *http.Request) (accounts.User, error) {
	token := sessionToken(r)
	if token == "" {
		return accounts.User{}, accounts.ErrUnauthorized.New("the server could not verify that you are authorized to access the URL requested")
	}
	return server.accounts.Authenticate(r.Context(), token)
}

// withAuth only calls next for authenticated requests.
func (server *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := server.authenticate(r)
		if err != nil {
			server.errorResponse(w, r, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	}
}

type userResponse struct {
	Email string `json:"email"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// login starts a session using basic authorization credentials.
func (server *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	if user, authErr := server.authenticate(r); authErr == nil {
		server.jsonResponse(w, http.StatusOK, userResponse{Email: user.Email})
		return
	}

	email, password, ok := r.BasicAuth()
	if !ok {
		err = ErrBadRequest.New("login credentials were not provided")
		server.errorResponse(w, r, err)
		return
	}
	if email == "" || password == "" {
		err = ErrBadRequest.New("provided credentials have not got a valid format")
		server.errorResponse(w, r, err)
		return
	}

	session, user, err := server.accounts.Login(ctx, remoteKey(r), email, password)
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   server.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	server.jsonResponse(w, http.StatusOK, userResponse{Email: user.Email})
}

// logout ends the current session.
func (server *Server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	if _, authErr := server.authenticate(r); authErr != nil {
		server.jsonResponse(w, http.StatusOK, statusResponse{Status: "You are currently not logged in."})
		return
	}

	if err = server.accounts.Logout(ctx, sessionToken(r)); err != nil {
		server.errorResponse(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   server.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	server.jsonResponse(w, http.StatusOK, statusResponse{Status: "You have been logged out."})
}

// remoteKey identifies the client for login throttling.
func remoteKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
