package auth

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AllowList é a lista imutável de e-mails com acesso ao painel.
// Lista vazia nega todo mundo.
type AllowList struct {
	emails map[string]struct{}
}

func NewAllowList(emails ...string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &AllowList{emails: set}
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

func (a *AllowList) Authorize(email string) error {
	if a.Len() == 0 {
		return ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrUnauthenticated
	}
	if _, ok := a.emails[email]; !ok {
		return ErrForbidden
	}
	return nil
}
