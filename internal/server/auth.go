package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// HeaderPeerID marks a bearer token as a trust relationship with a peer.
const HeaderPeerID = "X-ActingWeb-Peer"

type contextKey string

const contextKeyAuth contextKey = "auth"

// authContext resolves the Authorization header into a *types.Auth.
// The token is only classified here, not verified.
func authContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextKeyAuth, parseAuth(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseAuth(r *http.Request) *types.Auth {
	if user, pass, ok := r.BasicAuth(); ok {
		return &types.Auth{Type: types.AuthBasic, ClientID: user, Token: pass}
	}

	header := r.Header.Get("Authorization")
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return &types.Auth{Type: types.AuthAnonymous}
	}
	token = strings.TrimSpace(token)

	if peer := r.Header.Get(HeaderPeerID); peer != "" {
		return &types.Auth{Type: types.AuthTrust, PeerID: peer, Token: token}
	}
	return &types.Auth{Type: types.AuthOAuth, Token: token}
}

// getAuth returns the auth resolved for the request.
func getAuth(ctx context.Context) *types.Auth {
	if a, ok := ctx.Value(contextKeyAuth).(*types.Auth); ok {
		return a
	}
	return &types.Auth{Type: types.AuthAnonymous}
}
