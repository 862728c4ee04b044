package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/http/mapper"
	usertypes "github.com/Apurer/go-gin-storefront/internal/domains/users/application/types"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// UserAPI serves accounts and the caller's own profile.
type UserAPI struct {
	service userports.Service
}

// NewUserAPI wires dependencies.
func NewUserAPI(service userports.Service) UserAPI {
	return UserAPI{service: service}
}

// Post /api/users/sign-up
// Open an email and password account
func (api *UserAPI) SignUp(c *gin.Context) {
	var payload userhttpmapper.SignUp
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	user, err := api.service.Register(c.Request.Context(), userhttpmapper.ToRegisterInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userhttpmapper.FromDomainUser(user))
}

// Post /api/users/sign-in
// Exchange email and password for an access and a refresh token
func (api *UserAPI) SignIn(c *gin.Context) {
	var payload userhttpmapper.SignIn
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	session, err := api.service.Login(c.Request.Context(), usertypes.LoginInput{Email: payload.Email, Password: payload.Password})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromSession(session))
}

// Post /api/users/refresh-token
// Renew the access token
func (api *UserAPI) RefreshToken(c *gin.Context) {
	var payload userhttpmapper.RefreshToken
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	session, err := api.service.RefreshToken(c.Request.Context(), payload.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromSession(session))
}

// Put /api/users/me/password
// Change the caller's password
func (api *UserAPI) ChangePassword(c *gin.Context) {
	var payload userhttpmapper.ChangePassword
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	principal, _ := auth.PrincipalFrom(c)
	if err := api.service.ChangePassword(c.Request.Context(), userhttpmapper.ToChangePasswordInput(principal.UserID, payload)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /api/users/me
// Fetch the caller's profile, creating it from the token claims on first use
func (api *UserAPI) GetMe(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	user, err := api.service.Sync(c.Request.Context(), syncInput(principal))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}

// Put /api/users/me
// Update the caller's profile
func (api *UserAPI) UpdateMe(c *gin.Context) {
	var payload userhttpmapper.ProfileUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	principal, _ := auth.PrincipalFrom(c)
	if _, err := api.service.Sync(c.Request.Context(), syncInput(principal)); err != nil {
		respondServiceError(c, err)
		return
	}
	user, err := api.service.UpdateProfile(c.Request.Context(), userhttpmapper.ToUpdateProfileInput(principal.UserID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}

func syncInput(p auth.Principal) usertypes.SyncInput {
	return usertypes.SyncInput{
		UserID:  p.UserID,
		Name:    p.Name,
		Email:   p.Email,
		Avatar:  p.Avatar,
		IsAdmin: p.IsAdmin,
	}
}
