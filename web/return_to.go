package web

import (
	"net/http"
	"net/url"
	"strings"
)

// sanitizeReturnToPath keeps redirects on this site. Anything that is not a plain
// local path becomes "/".
func sanitizeReturnToPath(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") {
		return "/"
	}

	if strings.HasPrefix(returnTo, "//") || strings.HasPrefix(returnTo, `/\`) {
		return "/"
	}

	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return returnTo
}

func loginURL(r *http.Request) string {
	return "/login?next=" + url.QueryEscape(sanitizeReturnToPath(r.URL.RequestURI()))
}
