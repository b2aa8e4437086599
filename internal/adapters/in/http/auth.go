package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
)

// RoleRobot is the token role of a robot reporting its own telemetry. Robots are not
// order actors.
const RoleRobot = "robot"

const principalKey = "principal"

// ErrUnauthenticated is returned when a request carries no valid bearer token.
var ErrUnauthenticated = errors.New("authentication required")

// Claims is the token payload: the subject is the caller's id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	Role string
	ID   kernel.UUID
}

// Actor converts the principal into an order actor. Robots have none.
func (p Principal) Actor() (order.Actor, error) {
	if p.Role == RoleRobot {
		return order.Actor{}, errs.NewForbiddenError("robots cannot act on orders")
	}
	return order.NewActor(order.Role(p.Role), p.ID)
}

func (p Principal) isOperator() bool {
	return p.Role == string(order.RoleOperator)
}

// Authenticator verifies HS256 bearer tokens. Token issuance lives elsewhere.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Middleware rejects requests without a valid token and stores the Principal.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, Error{Code: CodeUnauthorized, Message: "missing bearer token"})
			}

			principal, err := a.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, Error{Code: CodeUnauthorized, Message: err.Error()})
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// Parse validates tokenStr and extracts the principal.
func (a *Authenticator) Parse(tokenStr string) (Principal, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, err
	}
	if !tok.Valid {
		return Principal{}, errors.New("invalid token")
	}

	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return Principal{}, errors.New("token subject is not a valid id")
	}

	role := strings.ToLower(claims.Role)
	if role != RoleRobot {
		if err = order.Role(role).Validate(); err != nil || order.Role(role).IsSystem() {
			return Principal{}, errors.New("token role is not allowed")
		}
	}

	return Principal{Role: role, ID: id}, nil
}

// Sign issues a token. Used by tests and local tooling.
func (a *Authenticator) Sign(role string, id kernel.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func principalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}
