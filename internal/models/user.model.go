package models

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleClaimant UserRole = "claimant"
)

// User rows are created by sql-migrate, not AutoMigrate.
type User struct {
	BaseUUIDModel
	Username     string   `gorm:"type:varchar(255);not null;uniqueIndex" json:"username"`
	PasswordHash string   `gorm:"type:varchar(255)"                      json:"-"`
	Role         UserRole `gorm:"type:varchar(32);not null"              json:"role"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
