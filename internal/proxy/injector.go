package proxy

import (
	"net/http"

	"bffgate/internal/session"
)

// Injector attaches the session's access token to outbound requests.
type Injector struct{}

// Inject sets "Authorization: Bearer <token>" on out from the session's
// current access token. Any Authorization header already present is
// replaced. For a nil session or one without an access token the header is
// removed, so client-supplied credentials never reach the upstream.
func (Injector) Inject(out *http.Request, s *session.Session) {
	out.Header.Del("Authorization")
	if s == nil || s.AccessToken == "" {
		return
	}
	s.Token().SetAuthHeader(out)
}
