package service

import (
	"evoblast-be/internal/dto"

	"github.com/golang-jwt/jwt/v5"
)

// Identity lives in the JWT issued by the auth frontend; this service only
// reads claims, it never issues tokens.
type IAuthService interface {
	UserInfo(claims jwt.MapClaims) *dto.UserInfoResponse
}

type authService struct{}

func NewAuthService() IAuthService {
	return &authService{}
}

func (s *authService) UserInfo(claims jwt.MapClaims) *dto.UserInfoResponse {
	res := &dto.UserInfoResponse{}
	if email, ok := claims["email"].(string); ok {
		res.Email = email
	}
	if project, ok := claims["project"].(string); ok {
		res.Project = project
	}
	if userId, ok := claims["user_id"].(string); ok {
		res.UserId = userId
	} else if sub, ok := claims["sub"].(string); ok {
		res.UserId = sub
	}
	return res
}
