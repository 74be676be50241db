package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quest-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JWTVerifier проверяет токены, выпущенные сервисом авторизации.
type JWTVerifier struct {
	jwtSecret string
	logger    *zap.Logger
}

// NewJWTVerifier создает верификатор. Пустой секрет - ошибка конфигурации.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{jwtSecret: jwtSecret, logger: logger.Named("JWTVerifier")}, nil
}

// VerifyToken проверяет подпись и срок действия и возвращает claims.
func (v *JWTVerifier) VerifyToken(_ context.Context, tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	if claims.UserID == uuid.Nil {
		log.Warn("Token missing UserID")
		return nil, fmt.Errorf("%w: UserID missing", models.ErrTokenInvalid)
	}
	return claims, nil
}

func tokenSnippet(tokenString string) string {
	if len(tokenString) > 15 {
		return tokenString[:15] + "..."
	}
	return tokenString
}

// TokenVerifier проверяет строку токена.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// AuthMiddleware извлекает Bearer-токен, проверяет его и кладет UserID в контекст запроса.
func AuthMiddleware(verify TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log := logger.With(zap.String("path", req.URL.Path))

			authHeader := req.Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Authorization header missing")
				return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized: Missing token"})
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("Malformed Authorization header")
				return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized: Malformed token header"})
			}

			claims, err := verify(req.Context(), parts[1])
			if err != nil {
				tokenVerificationsTotal.WithLabelValues("failure").Inc()
				msg := "Unauthorized: Invalid token"
				if errors.Is(err, models.ErrTokenExpired) {
					msg = "Unauthorized: Token expired"
				}
				return c.JSON(http.StatusUnauthorized, APIError{Message: msg})
			}

			tokenVerificationsTotal.WithLabelValues("success").Inc()
			c.SetRequest(req.WithContext(models.WithUserID(req.Context(), claims.UserID)))
			return next(c)
		}
	}
}
