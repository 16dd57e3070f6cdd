package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownDepartment = errors.New("unknown department")
	ErrUnknownStatus     = errors.New("unknown status")
)

// Department is the academic category a question is filed under.
type Department string

const (
	DepartmentHumanities      Department = "HUMANITIES"
	DepartmentSocialScience   Department = "SOCIAL_SCIENCE"
	DepartmentBusiness        Department = "BUSINESS"
	DepartmentNaturalScience  Department = "NATURAL_SCIENCE"
	DepartmentEngineering     Department = "ENGINEERING"
	DepartmentComputerScience Department = "COMPUTER_SCIENCE"
	DepartmentArts            Department = "ARTS"
	DepartmentEducation       Department = "EDUCATION"
)

var departments = []Department{
	DepartmentHumanities,
	DepartmentSocialScience,
	DepartmentBusiness,
	DepartmentNaturalScience,
	DepartmentEngineering,
	DepartmentComputerScience,
	DepartmentArts,
	DepartmentEducation,
}

// Departments lists every accepted department in display order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// ParseDepartment accepts any casing and surrounding whitespace.
func ParseDepartment(s string) (Department, error) {
	v := Department(strings.ToUpper(strings.TrimSpace(s)))
	for _, d := range departments {
		if d == v {
			return d, nil
		}
	}
	return "", ErrUnknownDepartment
}

// Status controls whether a question is open for answers.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func ParseStatus(s string) (Status, error) {
	switch v := Status(strings.ToUpper(strings.TrimSpace(s))); v {
	case StatusActive, StatusInactive:
		return v, nil
	}
	return "", ErrUnknownStatus
}

// Question is a post on the question board. SendExperience is the stake
// taken from the author at creation and is never edited afterwards.
type Question struct {
	ID               string     `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	AuthorID         string     `bson:"authorId" json:"authorId" gorm:"index;size:36;not null"`
	Title            string     `bson:"title" json:"title" gorm:"size:255;not null"`
	Content          string     `bson:"content" json:"content" gorm:"type:text;not null"`
	Department       Department `bson:"department" json:"department" gorm:"index;size:32;not null"`
	Status           Status     `bson:"status" json:"status" gorm:"size:16;not null"`
	SendExperience   int        `bson:"sendExperience" json:"sendExperience" gorm:"not null"`
	ViewCount        int        `bson:"viewCount" json:"viewCount" gorm:"not null;default:0"`
	AcceptedAnswerID *string    `bson:"acceptedAnswerId" json:"acceptedAnswerId,omitempty" gorm:"size:36"`
	IsAnswerAccepted bool       `bson:"isAnswerAccepted" json:"isAnswerAccepted" gorm:"not null;default:false"`
	ImageKeys        []string   `bson:"imageKeys,omitempty" json:"imageKeys,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Answer is a reply to a question. At most one answer per question is accepted.
type Answer struct {
	ID         string    `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	QuestionID string    `bson:"questionId" json:"questionId" gorm:"index;size:36;not null"`
	AuthorID   string    `bson:"authorId" json:"authorId" gorm:"index;size:36;not null"`
	Content    string    `bson:"content" json:"content" gorm:"type:text;not null"`
	IsAccepted bool      `bson:"isAccepted" json:"isAccepted" gorm:"not null;default:false"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Page selects a slice of a newest-first listing. Number is zero based.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }
