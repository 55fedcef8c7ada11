package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	authMiddleware func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	apiusers := http.NewServeMux()

	apiusers.HandleFunc("POST /register", authHandler.register)
	apiusers.HandleFunc("POST /login", authHandler.login)
	apiusers.HandleFunc("POST /refresh", authHandler.refresh)
	apiusers.Handle("POST /logout", withAuth(authHandler.logout))

	apiusers.Handle("GET /me", withAuth(userHandler.me))
	apiusers.Handle("PATCH /avatar", withAuth(userHandler.updateAvatar))

	root := http.NewServeMux()
	root.Handle("/api/users/", http.StripPrefix("/api/users", apiusers))

	return chain(root, middlewares...)
}
