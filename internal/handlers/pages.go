package handlers

import (
	"net/http"
)

// Minimal page handlers. The real marketing site and dashboard UI live in the
// front-end; these exist so the page guard has something to gate.

func HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	servePage(w, "SmartVest", `<h1>SmartVest</h1><p>Token vesting, simplified.</p><a href="/signup">Get started</a>`)
}

func SignupPage(w http.ResponseWriter, r *http.Request) {
	servePage(w, "Sign up - SmartVest", `<h1>Sign up</h1><p>Enter your email to receive a verification code.</p>`)
}

func DashboardPage(w http.ResponseWriter, r *http.Request) {
	servePage(w, "Dashboard - SmartVest", `<h1>Dashboard</h1><p>Your vesting schedules.</p>`)
}

func servePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html><html><head><title>` + title + `</title></head><body>` + body + `</body></html>`))
}
