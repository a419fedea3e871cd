package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"fundsledger/internal/gateway/identity"
	"fundsledger/pkg/apperror"
	"fundsledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContextSubjectKey is the gin context key holding the verified subject id.
const ContextSubjectKey = "subject_id"

// AuthMiddleware admits only requests with a valid bearer token for a
// verified email. Rejected requests never reach the handlers.
func AuthMiddleware(verifier identity.Verifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Missing or invalid token")
			return
		}

		id, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.InfoContext(c.Request.Context(), "token rejected", slog.String("error", err.Error()))
			if apperror.KindOf(err) != apperror.Unauthenticated {
				err = apperror.Wrap(apperror.Unauthenticated, "Unauthorized", err)
			}
			response.Fail(c, err)
			return
		}
		if !id.EmailVerified {
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "Email not verified")
			return
		}

		c.Request = c.Request.WithContext(identity.WithSubject(c.Request.Context(), id.SubjectID))
		c.Set(ContextSubjectKey, id.SubjectID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
