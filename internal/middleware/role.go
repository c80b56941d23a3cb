package middleware // middleware provides reusable HTTP middleware functions

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole gates a route group on the JWT's "role" claim, which
// JWTAuth stores in the request context.  The allowed set is fixed at
// registration time; a request with a missing, non-string or
// unrecognised role is rejected with 403.  The engine only uses this
// for the admin surface, so there is no role hierarchy: a role either
// is in the set or it is not.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]struct{}, len(roles))
    for _, r := range roles {
        allowed[r] = struct{}{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get("role").(string)
            if _, ok := allowed[role]; !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
