// Package flash carries one-time notices across a redirect.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const CookieName = "quota_flash"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notice struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

func Success(text string) Notice { return Notice{Kind: KindSuccess, Text: text} }

func Error(text string) Notice { return Notice{Kind: KindError, Text: text} }

// Write stores notice for the next page render.
func Write(w http.ResponseWriter, notice Notice, secure bool) {
	if w == nil {
		return
	}
	normalized, ok := normalize(notice)
	if !ok {
		return
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadAndClear returns the pending notice, if any, and expires the cookie.
func ReadAndClear(w http.ResponseWriter, r *http.Request, secure bool) (Notice, bool) {
	if r == nil {
		return Notice{}, false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Notice{}, false
	}
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return decode(cookie.Value)
}

func decode(raw string) (Notice, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return Notice{}, false
	}
	var n Notice
	if err := json.Unmarshal(decoded, &n); err != nil {
		return Notice{}, false
	}
	return normalize(n)
}

func normalize(n Notice) (Notice, bool) {
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		return Notice{}, false
	}
	switch n.Kind {
	case KindSuccess, KindError:
		return n, true
	}
	return Notice{}, false
}
