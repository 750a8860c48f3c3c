package shield

import "net/http"

// HeadToGet rewrites HEAD to GET before routing, so GET-only routes like the
// card view and preview answer 200 instead of 405. net/http drops the body
// on HEAD responses, so handlers need no awareness of the rewrite.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
