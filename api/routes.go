package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coreybb/recipes/models"
	rh "github.com/coreybb/recipes/route-handlers"
	"github.com/coreybb/recipes/webutil"
)

const (
	apiBasePath         = "/api"
	userBasePath        = "/user"
	recipeBasePath      = "/recipe"
	tagsPath            = "/tags"
	ingredientsPath     = "/ingredients"
	recipesPath         = "/recipes"
	imageSubPath        = "/image"
	defaultReqTimeout   = 60 * time.Second
	corsMaxAgeInSeconds = 300
)

const (
	paramID = "id" // General parameter name for resource IDs
)

// Handlers groups the endpoint handlers mounted by SetupRoutes.
type Handlers struct {
	Users       *rh.UserHandler
	Tags        *rh.AttributeHandler[models.Tag]
	Ingredients *rh.AttributeHandler[models.Ingredient]
	Recipes     *rh.RecipeHandler
	Images      *rh.RecipeImageHandler
}

// Options tunes the middleware stack.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// SetupRoutes builds the HTTP router. Everything under /api/recipe and
// /api/user/me goes through authn.
func SetupRoutes(h Handlers, authn func(http.Handler) http.Handler, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultReqTimeout
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log every request
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", webutil.HeaderAuthorization, webutil.HeaderContentType, webutil.HeaderIfNoneMatch},
		ExposedHeaders:   []string{webutil.HeaderETag},
		AllowCredentials: false,
		MaxAge:           corsMaxAgeInSeconds,
	}))

	// Set before any sub-router is mounted so chi copies them down.
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Route(apiBasePath, func(r chi.Router) {
		configureUserRoutes(r, h.Users, authn)
		r.Route(recipeBasePath, func(r chi.Router) {
			r.Use(authn)
			configureAttributeRoutes(r, tagsPath, h.Tags)
			configureAttributeRoutes(r, ingredientsPath, h.Ingredients)
			configureRecipeRoutes(r, h.Recipes, h.Images)
		})
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

// --- User Routes ---
func configureUserRoutes(r chi.Router, handler *rh.UserHandler, authn func(http.Handler) http.Handler) {
	r.Route(userBasePath, func(r chi.Router) {
		r.Post("/create", webutil.MakeHandler(handler.HandleCreateUser))
		r.Post("/token", webutil.MakeHandler(handler.HandleCreateToken))
		r.With(authn).Get("/me", webutil.MakeHandler(handler.HandleGetMe))
		r.With(authn).Patch("/me", webutil.MakeHandler(handler.HandleUpdateMe))
	})
}

// --- Tag / Ingredient Routes ---
func configureAttributeRoutes[T any](r chi.Router, basePath string, handler *rh.AttributeHandler[T]) {
	r.Route(basePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleList))
		r.Post("/", webutil.MakeHandler(handler.HandleCreate))
		r.Route(pathWithParam("", paramID), func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGet))
			r.Put("/", webutil.MakeHandler(handler.HandleUpdate))
			r.Patch("/", webutil.MakeHandler(handler.HandleUpdate))
			r.Delete("/", webutil.MakeHandler(handler.HandleDelete))
		})
	})
}

// --- Recipe Routes ---
func configureRecipeRoutes(r chi.Router, handler *rh.RecipeHandler, images *rh.RecipeImageHandler) {
	r.Route(recipesPath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleListRecipes))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateRecipe))
		r.Route(pathWithParam("", paramID), func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetRecipe))
			r.Put("/", webutil.MakeHandler(handler.HandleUpdateRecipe))
			r.Patch("/", webutil.MakeHandler(handler.HandleUpdateRecipe))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteRecipe))
			r.Post(imageSubPath, webutil.MakeHandler(images.HandleUploadImage))
			r.Get(imageSubPath, webutil.MakeHandler(images.HandleGetImage))
		})
	})
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	webutil.WriteError(w, r, webutil.ErrNotFound(""))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	webutil.WriteError(w, r, webutil.ErrMethodNotAllowed(r.Method))
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
