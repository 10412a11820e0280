package csrf

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	authmw "github.com/shophub/storefront/pkg/middleware/auth"
)

type Config struct {
	CookieName string
	HeaderName string

	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration

	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     24 * time.Hour,
	}
}

// Middleware enforces a double-submit token on unsafe requests that carry the
// access token cookie. Bearer and anonymous requests pass through.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return true
			}
			ck, err := c.Cookie(authmw.AccessCookie)
			return err != nil || ck.Value == ""
		},
		TokenLookup:    "header:" + cfg.HeaderName,
		CookieName:     cfg.CookieName,
		CookiePath:     "/",
		CookieMaxAge:   int(cfg.MaxAge.Seconds()),
		CookieSecure:   cfg.Secure,
		CookieSameSite: cfg.SameSite,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
		},
	})
}
