package models

import "errors"

// Credentials is the body of both register and login requests.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client-visible messages. They are part of the API contract.
const (
	MsgInvalidRegisterData = "Invalid data provided"
	MsgUserExists          = "User already exists"
	MsgRegistered          = "User registered successfully"
	MsgInvalidLoginData    = "Invalid email or password"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgLoginSuccessful     = "Login successful"
	MsgLogoutSuccessful    = "Logout successful"
	MsgUnauthorized        = "Unauthorized"
	MsgInternalError       = "Internal server error"
	MsgTooManyRequests     = "Too many requests from this IP, please try again later"
	MsgNotFound            = "Not found"
	MsgMethodNotAllowed    = "Method not allowed"
)

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeSQLite
	StorageTypeMemory
)

// ErrUserExists is returned by stores when the email is already taken.
var ErrUserExists = errors.New("user with this email already exists")

// ErrUserNotFound is returned by stores when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")
