package http

import "github.com/buildwise-ai/buildwise-backend/internal/users/service"

type Handler struct {
	userService *service.UserService
}

func New(userService *service.UserService) *Handler {
	return &Handler{userService: userService}
}
