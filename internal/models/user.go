package models

import "time"

// User is a community member. Experience balances are owned by the
// experience ledger; other packages only read them.
type User struct {
	ID         string `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Email      string `bson:"email" json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name       string `bson:"name" json:"name"`
	Nickname   string `bson:"nickname" json:"nickname"`
	StudentNo  string `bson:"studentNo,omitempty" json:"studentNo,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	// TotalExperience only ever grows; it caps how much a user may stake.
	TotalExperience int `bson:"totalExperience" json:"totalExperience" gorm:"not null;default:0"`
	// CurrentExperience is the spendable balance and never drops below zero.
	CurrentExperience int       `bson:"currentExperience" json:"currentExperience" gorm:"not null;default:0"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName is what boards show next to a post.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
