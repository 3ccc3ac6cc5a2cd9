package models

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a gym member or staff account. Authentication here is a thin
// collaborator around the membership core: it only has to yield an
// authenticated principal with a role.
type User struct {
	BaseModel

	FullName     string `json:"full_name" gorm:"size:100;not null"`
	Email        string `json:"email" gorm:"size:100;uniqueIndex;not null"`
	Phone        string `json:"phone" gorm:"size:30"`
	PasswordHash string `json:"-" gorm:"size:100;not null"`
	Role         string `json:"role" gorm:"size:20;default:'member'"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}
