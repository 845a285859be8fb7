package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

const flashCookie = "analyzer_flash"

// Flash is a one-shot message surfaced to the user on the next rendered page.
type Flash struct {
	// Category is a presentation hint: "success", "info" or "danger".
	Category string `json:"category"`
	Message  string `json:"message"`
}

// flashStore keeps flash messages in an HMAC-signed cookie, read once and
// cleared on the next request. Tampered or malformed cookies are discarded
// silently.
type flashStore struct {
	secret []byte
}

func newFlashStore(secret string) *flashStore {
	return &flashStore{secret: []byte(secret)}
}

// Set replaces the pending flashes with the given messages.
func (f *flashStore) Set(w http.ResponseWriter, flashes ...Flash) {
	payload, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    encoded + "." + f.sign(encoded),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending flashes, if any, and clears the cookie.
func (f *flashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	encoded, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(f.sign(encoded))) {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (f *flashStore) sign(encoded string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
