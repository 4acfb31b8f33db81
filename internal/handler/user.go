package handler

import (
	"ColdVault/internal/apperr"
	"ColdVault/internal/dto"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// Register creates an inactive account and mails an activation link.
func Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	u, err := users.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"user_id": u.ID, "msg": "activation email sent"})
}

// Activate flips an account to active via the mailed token.
func Activate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "token missing"))
		return
	}
	if err := users.Activate(c.Request.Context(), token); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"msg": "account activated"})
}

// Login authenticates a user and returns a token.
func Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.Fail(c, apperr.New(apperr.InvalidArgument, "invalid request: %v", err))
		return
	}
	token, u, err := users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.LoginResponse{Token: token, User: u})
}

// Me returns the authenticated account.
func Me(c *gin.Context) {
	u, err := users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, u)
}
