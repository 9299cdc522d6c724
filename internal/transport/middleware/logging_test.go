package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("filterSensitiveBody", func() {
	It("masks sensitive form fields and keeps the rest", func() {
		form := url.Values{"username": {"jdoe"}, "password": {"hunter2"}, "password_confirm": {"hunter2"}}

		out := filterSensitiveBody("application/x-www-form-urlencoded", []byte(form.Encode()))

		Expect(out).To(ContainSubstring("username=jdoe"))
		Expect(out).NotTo(ContainSubstring("hunter2"))
		Expect(out).To(ContainSubstring("FILTERED"))
	})

	It("masks nested JSON fields", func() {
		out := filterSensitiveBody("application/json", []byte(`{"user":{"name":"jdoe","api_key":"k-1"},"items":[{"token":"t-1"}]}`))

		Expect(out).To(ContainSubstring(`"name":"jdoe"`))
		Expect(out).NotTo(ContainSubstring("k-1"))
		Expect(out).NotTo(ContainSubstring("t-1"))
	})

	It("refuses to log unparseable text mentioning a secret", func() {
		Expect(filterSensitiveBody("text/plain", []byte("my password is hunter2"))).
			To(Equal("[FILTERED - Contains sensitive data]"))
		Expect(filterSensitiveBody("text/plain", []byte("hello"))).To(Equal("hello"))
	})

	It("is empty without a body", func() {
		Expect(filterSensitiveBody("application/json", nil)).To(BeEmpty())
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("logs the filtered request and leaves the body readable", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewTextHandler(&buf, nil))
		var seen string
		handler := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			seen = r.PostForm.Get("password")
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodPost, "/modals/login/1", strings.NewReader("username=jdoe&password=hunter2"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Cookie", "expense_console_session=abc")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(Equal("hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("abc"))
		Expect(buf.String()).To(ContainSubstring("status_code=418"))
		Expect(buf.String()).To(ContainSubstring("level=WARN"))
	})
})
