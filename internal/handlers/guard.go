package handlers

import "net/http"

const (
	msgLoginRequired   = "You need to be logged in to do that"
	msgTeacherRequired = "You need to be logged in as a teacher to do that"
)

// RequireTeacher lets only logged-in teachers through; everyone else is sent home with an error.
func RequireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if !identity.IsAuthenticated() {
			redirectError(w, r, "/", msgLoginRequired)
			return
		}
		if !identity.IsTeacher() {
			redirectError(w, r, "/", msgTeacherRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
