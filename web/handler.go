package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/groups"
	"github.com/nasermirzaei89/posthub/votes"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/time/rate"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const defaultSiteTitle = "PostHub"

type Config struct {
	SessionName string
	// SessionSecure marks the session cookie Secure. Turn it off only for plain HTTP.
	SessionSecure      bool
	CSRFAuthKey        []byte
	CSRFTrustedOrigins []string
	// CSRFSecure marks the CSRF cookie Secure. Turn it off only for plain HTTP.
	CSRFSecure    bool
	VoteRateLimit rate.Limit
	VoteRateBurst int
}

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	tpl         *template.Template
	static      fs.FS
	authSvc     *auth.Service
	contentsSvc *contents.Service
	groupsSvc   *groups.Service
	discussSvc  *discuss.Service
	votesSvc    *votes.Service
	cookieStore *sessions.CookieStore
	sessionName string
	markdown    goldmark.Markdown
	voteLimiter *keyedLimiter
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	authSvc *auth.Service,
	contentsSvc *contents.Service,
	groupsSvc *groups.Service,
	discussSvc *discuss.Service,
	votesSvc *votes.Service,
	cookieStore *sessions.CookieStore,
	cfg Config,
) (*Handler, error) {
	h := &Handler{
		mux:         nil,
		handler:     nil,
		tpl:         nil,
		static:      nil,
		authSvc:     authSvc,
		contentsSvc: contentsSvc,
		groupsSvc:   groupsSvc,
		discussSvc:  discussSvc,
		votesSvc:    votesSvc,
		cookieStore: cookieStore,
		sessionName: cfg.SessionName,
		markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		voteLimiter: newKeyedLimiter(cfg.VoteRateLimit, cfg.VoteRateBurst),
	}

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.authMiddleware(h.handler)

		csrfMiddleware := csrf.Protect(
			cfg.CSRFAuthKey,
			csrf.Secure(cfg.CSRFSecure),
			csrf.Path("/"),
			csrf.TrustedOrigins(cfg.CSRFTrustedOrigins),
		)

		h.handler = csrfMiddleware(h.handler)
		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/", h.HandleIndex)

	h.mux.Handle("GET /register", h.HandleRegisterPage())
	h.mux.Handle("POST /register", h.HandleRegister())
	h.mux.Handle("GET /login", h.HandleLoginPage())
	h.mux.Handle("POST /login", h.HandleLogin())
	h.mux.Handle("GET /logout", h.HandleLogoutPage())
	h.mux.Handle("POST /logout", h.HandleLogout())

	h.mux.Handle("GET /categories", h.HandleCategoriesPage())
	h.mux.Handle("POST /categories", h.HandleCreateCategory())

	h.mux.Handle("GET /create-post", h.HandleCreatePostPage())
	h.mux.Handle("POST /create-post", h.HandleCreatePost())
	h.mux.Handle("GET /p/{slug}", h.HandleViewPostPage())
	h.mux.Handle("GET /p/{slug}/edit", h.HandleEditPostPage())
	h.mux.Handle("POST /p/{slug}/edit", h.HandleEditPost())
	h.mux.Handle("POST /p/{slug}/delete", h.HandleDeletePost())
	h.mux.Handle("POST /p/{slug}/comment", h.HandlePostComment())

	h.mux.Handle("POST /comments/{commentId}/edit", h.HandleEditComment())
	h.mux.Handle("POST /comments/{commentId}/delete", h.HandleDeleteComment())
	h.mux.Handle("POST /comments/{commentId}/visibility", h.HandleCommentVisibility())

	h.mux.Handle("POST /vote", h.HandleVote())

	h.mux.Handle("GET /u/{username}", h.HandleProfilePage())
	h.mux.Handle("GET /profile", h.HandleEditProfilePage())
	h.mux.Handle("POST /profile", h.HandleEditProfile())

	h.mux.Handle("GET /groups", h.HandleGroupsPage())
	h.mux.Handle("GET /create-group", h.HandleCreateGroupPage())
	h.mux.Handle("POST /create-group", h.HandleCreateGroup())
	h.mux.Handle("GET /g/{slug}", h.HandleViewGroupPage())
	h.mux.Handle("POST /g/{slug}/join", h.HandleJoinGroup())
	h.mux.Handle("POST /g/{slug}/comment", h.HandleGroupComment())
	h.mux.Handle("POST /g/{slug}/update", h.HandleUpdateGroup())
	h.mux.Handle("POST /g/{slug}/members/{userId}/remove", h.HandleRemoveMember())
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(source string) template.HTML {
			var buf bytes.Buffer

			err := h.markdown.Convert([]byte(source), &buf)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec
			}

			return template.HTML(buf.String()) //nolint:gosec
		},
		"indent": func(depth int) int {
			return min(depth, 8) * 24
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}

			return *s
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"upvoted": func(tally *votes.Tally) bool {
			return tally != nil && tally.UserVote != nil && *tally.UserVote
		},
		"downvoted": func(tally *votes.Tally) bool {
			return tally != nil && tally.UserVote != nil && !*tally.UserVote
		},
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, extraData map[string]any) {
	h.renderTemplateStatus(w, r, http.StatusOK, name, extraData)
}

// renderTemplateStatus renders the page with the given status code.
func (h *Handler) renderTemplateStatus(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	name string,
	extraData map[string]any,
) {
	var currentUser *auth.User

	if isAuthenticated(r) {
		var err error

		currentUser, err = h.authSvc.GetCurrentUser(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to get current user", "error", err)
			http.Error(w, "Failed to get current user", http.StatusInternalServerError)

			return
		}
	}

	data := map[string]any{
		"CurrentPath":     r.URL.Path,
		"Lang":            "en",
		"Dir":             "ltr",
		"IsAuthenticated": isAuthenticated(r),
		"CurrentUser":     currentUser,
		"CSRFToken":       csrf.Token(r),
		csrf.TemplateTag:  csrf.TemplateField(r),
	}

	maps.Copy(data, extraData)

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], defaultSiteTitle)
	}

	var buf bytes.Buffer

	err := h.tpl.ExecuteTemplate(&buf, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "name", name, "error", err)
	}
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		h.HandleHomePage(w, r)

		return
	}

	h.HandleStatic(w, r)
}

// HandleStatic serves static files.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}

func (h *Handler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := h.actor(r)
	if err != nil {
		h.handleError(w, r, "failed to resolve actor", err)

		return
	}

	page := pageParam(r)
	categoryID := r.URL.Query().Get("category")

	posts, err := h.contentsSvc.ListPosts(ctx, contents.ListPostsParams{
		Status:     nil,
		CategoryID: categoryID,
		GroupID:    "",
		Limit:      postsPerPage + 1,
		Offset:     (page - 1) * postsPerPage,
	})
	if err != nil {
		h.handleError(w, r, "failed to list posts", err)

		return
	}

	posts, pages := pagination(page, posts)

	cards, err := h.postCards(ctx, actor, posts)
	if err != nil {
		h.handleError(w, r, "failed to load posts", err)

		return
	}

	categories, err := h.contentsSvc.ListCategories(ctx)
	if err != nil {
		h.handleError(w, r, "failed to list categories", err)

		return
	}

	data := map[string]any{
		"Posts":      cards,
		"Categories": categories,
		"CategoryID": categoryID,
		"Pagination": pages,
	}

	h.renderTemplate(w, r, "home-page.gohtml", data)
}
