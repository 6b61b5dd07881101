// Package testapp is a small web application exercising the browser: pages,
// redirects of every kind, cookies, forms, uploads and legacy encodings.
package testapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// Server is the test application.
type Server struct {
	cfg        Config
	router     chi.Router
	logger     logging.Logger
	httpServer *http.Server
}

// NewServer creates the application with all routes mounted.
func NewServer(cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewStdoutLogger("testapp")
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	for _, p := range StaticPages() {
		r.HandleFunc(p.Path, pageHandler(p))
	}

	r.Get("/info", s.handleInfo)
	r.Get("/relative/info", s.handleInfo)
	r.Get("/somepath/info", s.handleInfo)
	r.Get("/user-agent", s.handleUserAgent)
	r.Get("/search", s.handleSearch)
	r.Get("/status", s.handleStatus)
	r.Get("/auth", s.handleAuth)

	// Redirects
	r.Get("/redirect", redirectTo("/info", http.StatusFound))
	r.Get("/redirect2", redirectTo("/info", http.StatusMovedPermanently))
	r.Get("/redirect_twice", redirectTo("/redirect", http.StatusFound))
	r.Get("/redirect_loop", redirectTo("/redirect_loop", http.StatusFound))
	r.Get("/redirect_params", redirectTo("/search?one=1&two=2", http.StatusFound))
	r.Get("/relative_redirect", redirectTo("info", http.StatusFound))
	r.Get("/relative/redirect", redirectTo("info", http.StatusFound))
	r.Get("/somepath/redirect_base_uri_has_path", redirectTo("/somepath/info", http.StatusFound))
	r.HandleFunc("/redirect_303", redirectTo("/form/echo", http.StatusSeeOther))
	r.HandleFunc("/redirect_307", redirectTo("/form/echo", http.StatusTemporaryRedirect))
	r.Get("/location_201", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/info")
		w.WriteHeader(http.StatusCreated)
	})

	// Cookies
	r.Get("/cookies", s.handleCookies)
	r.Get("/cookies/show", s.handleShowCookies)
	r.Get("/unset-cookie", s.handleUnsetCookie)

	// Forms and REST
	r.HandleFunc("/form/echo", s.handleFormEcho)
	r.Post("/rest/file-upload", s.handleFileUpload)
	r.Get("/rest/foo/", s.handleFooHeader)
}

// ServeHTTP makes Server usable as an http.Handler (httptest, custom servers).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("test app listening", logging.String("addr", "http://"+s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request",
			logging.String("method", r.Method),
			logging.String("uri", r.URL.RequestURI()))
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// --- HTTP handlers ---

func pageHandler(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range p.Headers {
			w.Header().Set(k, v)
		}
		contentType := p.ContentType
		if contentType == "" {
			contentType = "text/html; charset=UTF-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(p.HTML))
	}
}

func redirectTo(location string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(status)
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(r.Header))
	for k := range r.Header {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<html><head><title>Information</title></head><body>\n<h1>Information</h1>\n")
	fmt.Fprintf(&b, "<p id=\"method\">%s</p>\n<pre id=\"headers\">\n", r.Method)
	for _, k := range names {
		fmt.Fprintf(&b, "%s: %s\n", html.EscapeString(k), html.EscapeString(r.Header.Get(k)))
	}
	b.WriteString("</pre>\n</body></html>")
	writeHTML(w, http.StatusOK, b.String())
}

func (s *Server) handleUserAgent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, r.UserAgent())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "query: "+r.URL.RawQuery)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if v := r.URL.Query().Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 || n > 599 {
			http.Error(w, "bad status", http.StatusBadRequest)
			return
		}
		code = n
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	fmt.Fprintf(w, "Status code: %d\n", code)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.cfg.AuthUser || pass != s.cfg.AuthPassword {
		w.Header().Set("WWW-Authenticate", `Basic realm="test app"`)
		writeHTML(w, http.StatusUnauthorized, "<h1>Unauthorized</h1>")
		return
	}
	writeHTML(w, http.StatusOK, "<h1>Welcome, "+html.EscapeString(user)+"</h1>")
}

func (s *Server) handleCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "foo", Value: "bar1", Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "baz", Value: "bar2", Path: "/"})
	writeHTML(w, http.StatusOK, "<h1>Cookies set</h1>")
}

func (s *Server) handleShowCookies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	for _, c := range r.Cookies() {
		fmt.Fprintf(w, "%s=%s\n", c.Name, c.Value)
	}
}

func (s *Server) handleUnsetCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "foo", Value: "", Path: "/", MaxAge: -1})
	writeHTML(w, http.StatusOK, "<h1>Cookie removed</h1>")
}

// Field is one submitted form field, in submission order.
type Field struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Filename string `json:"filename,omitempty"`
}

// EchoResult is the JSON answer of /form/echo.
type EchoResult struct {
	Method      string  `json:"method"`
	ContentType string  `json:"content_type"`
	Query       string  `json:"query"`
	Fields      []Field `json:"fields"`
	Raw         string  `json:"raw,omitempty"`
}

func (s *Server) handleFormEcho(w http.ResponseWriter, r *http.Request) {
	res := EchoResult{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		Query:       r.URL.RawQuery,
		Fields:      []Field{},
	}

	switch {
	case strings.HasPrefix(res.ContentType, "multipart/form-data"):
		mr, err := r.MultipartReader()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			data, _ := io.ReadAll(p)
			res.Fields = append(res.Fields, Field{Name: p.FormName(), Value: string(data), Filename: p.FileName()})
		}
	case res.ContentType == "application/x-www-form-urlencoded":
		body, _ := io.ReadAll(r.Body)
		for _, pair := range strings.Split(string(body), "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			name, _ := url.QueryUnescape(k)
			value, _ := url.QueryUnescape(v)
			res.Fields = append(res.Fields, Field{Name: name, Value: value})
		}
	default:
		body, _ := io.ReadAll(r.Body)
		res.Raw = string(body)
	}
	writeJSON(w, http.StatusOK, res)
}

// UploadResult is the JSON answer of /rest/file-upload.
type UploadResult struct {
	Uploaded bool   `json:"uploaded"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size"`
	MIME     string `json:"mime,omitempty"`
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, UploadResult{})
		return
	}
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		if p.FormName() != "file" || p.FileName() == "" {
			continue
		}
		data, err := io.ReadAll(p)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, UploadResult{})
			return
		}
		writeJSON(w, http.StatusOK, UploadResult{
			Uploaded: true,
			Filename: p.FileName(),
			Size:     len(data),
			MIME:     mimetype.Detect(data).String(),
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, UploadResult{})
}

func (s *Server) handleFooHeader(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "foo: %q\n", r.Header.Get("Foo"))
}
