package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes/middlewares"
	"github.com/mbolis/quick-forms/storage"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   app.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)

	root.Mount("/api", apiRouter(app))
	root.Get("/health", Health(app))

	if dir, ok := app.Storage.(*storage.DirBucket); ok {
		root.Mount("/files", serveBucket(dir))
	}
	if app.StaticDir != "" {
		root.Mount("/", serveSPA(app.StaticDir))
	}

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	authenticated := middlewares.Authenticated(app)

	api.Route("/auth", func(r chi.Router) {
		r.Post("/signup", Signup(app))
		r.Post("/login", Login(app))
		r.Post("/refresh", Refresh(app))
		r.With(authenticated).Get("/me", Me(app))
	})

	api.Get("/question-types", ListQuestionTypes(app))

	api.Route("/forms", func(r chi.Router) {
		r.With(middlewares.Optional(app)).Get("/{id}", GetFormById(app))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			// CRUD form
			r.Post("/", CreateForm(app))
			r.Get("/", ListForms(app))
			r.Put("/{id}", UpdateForm(app))
			r.Delete("/{id}", DeleteForm(app))

			r.Post("/{id}/questions", AddQuestion(app))
			r.Put("/questions/{id}", UpdateQuestion(app))
			r.Delete("/questions/{id}", DeleteQuestion(app))
		})
	})

	api.Route("/responses", func(r chi.Router) {
		r.Post("/{id}/submit", SubmitResponse(app))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/{id}", ListResponses(app))
			r.Get("/{id}/export", ExportResponses(app))
			r.Get("/single/{id}", GetResponseById(app))
			r.Delete("/{id}", DeleteResponse(app))
		})
	})

	api.Route("/media", func(r chi.Router) {
		r.Get("/{id}", ListMedia(app))
		r.With(authenticated).Post("/{id}/upload", UploadMedia(app))
		r.With(authenticated).Delete("/{id}", DeleteMedia(app))
	})

	api.Route("/branding", func(r chi.Router) {
		r.Get("/{id}", GetBranding(app))
		r.With(authenticated).Put("/{id}", UpdateBranding(app))
		r.With(authenticated).Post("/{id}/logo", UploadLogo(app))
	})

	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Route not found"})
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.PingContext(r.Context()); err != nil {
			log.Errorf("health.db: %s", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "unavailable"})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

// serveBucket exposes the objects of a directory bucket, without listings.
func serveBucket(b *storage.DirBucket) http.Handler {
	files := http.StripPrefix("/files", http.FileServer(http.Dir(b.Root())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// serveSPA serves the built front end, falling back to index.html for
// client side routes.
func serveSPA(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err != nil || info.IsDir() && r.URL.Path != "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
