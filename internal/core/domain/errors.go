package domain

import "errors"

var ErrIdentityRequired = errors.New("identity required: no actor in request context")
var ErrDuplicateEmail = errors.New("email already registered")
var ErrRoleNotFound = errors.New("role not found")
var ErrTokenNotFound = errors.New("confirmation token not found")
var ErrTokenExpired = errors.New("confirmation token expired")
var ErrUserNotFound = errors.New("user not found")
var ErrCredentialNotFound = errors.New("credential not found")
var ErrNotificationFailed = errors.New("notification failed")
var ErrInvalidInput = errors.New("invalid input")
