package domain

import "errors"

var (
	ErrInvalidInput  = errors.New("username and room are required")
	ErrUsernameTaken = errors.New("username must be unique in a room")
	ErrUserNotFound  = errors.New("user not found")
	ErrProfanity     = errors.New("profanity is not allowed")
)
