package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setFlashCookie(t *testing.T, fs *flashStore, flashes ...Flash) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	fs.Set(rec, flashes...)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestFlashRoundTrip(t *testing.T) {
	t.Parallel()

	fs := newFlashStore("secret")
	cookie := setFlashCookie(t, fs,
		Flash{Category: "success", Message: "URL successfully added"},
		Flash{Category: "info", Message: "second"},
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	flashes := fs.Pop(rec, req)
	require.Len(t, flashes, 2)
	require.Equal(t, "success", flashes[0].Category)
	require.Equal(t, "URL successfully added", flashes[0].Message)
	require.Equal(t, "second", flashes[1].Message)
}

func TestFlashPopClearsCookie(t *testing.T) {
	t.Parallel()

	fs := newFlashStore("secret")
	cookie := setFlashCookie(t, fs, Flash{Category: "success", Message: "once"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	fs.Pop(rec, req)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, flashCookie, cleared[0].Name)
	require.Negative(t, cleared[0].MaxAge)
}

func TestFlashRejectsTamperedCookie(t *testing.T) {
	t.Parallel()

	fs := newFlashStore("secret")
	cookie := setFlashCookie(t, fs, Flash{Category: "success", Message: "legit"})
	cookie.Value = strings.Replace(cookie.Value, ".", "x.", 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	require.Nil(t, fs.Pop(rec, req))
}

func TestFlashRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	cookie := setFlashCookie(t, newFlashStore("one"), Flash{Category: "info", Message: "m"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	require.Nil(t, newFlashStore("two").Pop(rec, req))
}

func TestFlashMissingCookie(t *testing.T) {
	t.Parallel()

	fs := newFlashStore("secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	require.Nil(t, fs.Pop(rec, req))
}
