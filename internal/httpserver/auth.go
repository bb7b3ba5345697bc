package httpserver

import (
	"log"
	"net/http"

	"shophub/internal/auth"
	"shophub/internal/domain"
	usersvc "shophub/internal/service/user"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func registerHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in usersvc.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			bodyError(c, err, "invalid request body")
			return
		}
		u, token, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, authResponse{Token: token, User: u})
	}
}

func loginHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bodyError(c, err, "invalid request body")
			return
		}
		u, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, authResponse{Token: token, User: u})
	}
}

func meHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		u, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
