// Package web serves the desk pages: the landing page and the
// school-registration flow with sign-in and ECP submission.
//
// Form posts follow post/redirect/get. Status lines survive the redirect in a
// one-shot flash cookie, and signed-in state lives in a server-side session
// keyed by the desk_session cookie.
package web
