package models

import (
	"errors"
	"fmt"
)

// Стандартные ошибки приложения.
var (
	// Ресурсы и БД
	ErrNotFound    = errors.New("resource not found")
	ErrPersistence = errors.New("persistence failure")

	// Доступ
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidCode  = errors.New("invalid access code")

	// Токены
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Контент истории
	ErrDataIntegrity  = errors.New("story content violates integrity constraints")
	ErrMissingContent = fmt.Errorf("%w: required content is missing", ErrDataIntegrity)
	ErrMalformedChain = fmt.Errorf("%w: malformed question chain", ErrDataIntegrity)

	// Игровой процесс
	ErrInvalidState       = errors.New("operation is not allowed in the current session state")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrBadRequest         = errors.New("bad request")
	ErrOptionNotPresented = fmt.Errorf("%w: answer option was not presented to the player", ErrBadRequest)

	ErrInternalServer = errors.New("internal server error")
)
