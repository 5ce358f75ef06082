package models

import (
	"time"
)

type User struct {
	UID       string    `firestore:"uid" json:"uid"`
	Email     string    `firestore:"email" json:"email"`
	FirstName string    `firestore:"firstName" json:"firstName"`
	LastName  string    `firestore:"lastName" json:"lastName"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DisplayName is the name used in greetings; profiles without a first name get the generic
// pt-BR "Usuário".
func (u *User) DisplayName() string {
	if u == nil || u.FirstName == "" {
		return "Usuário"
	}
	return u.FirstName
}
