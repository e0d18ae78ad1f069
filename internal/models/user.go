package models

// User - учетная запись. Идентичность живет во внешнем identity-сервисе,
// здесь хранится только то, что нужно для проверки активности и отображения.
type User struct {
	BaseModel
	Email       string     `gorm:"uniqueIndex;not null"`
	DisplayName string     `gorm:"type:varchar(120)"`
	AvatarURL   *string
	Role        string     `gorm:"type:varchar(20);default:'member'"`
	Status      UserStatus `gorm:"type:varchar(20);default:'active'"`
}

// IsActive сообщает, может ли пользователь открывать соединения.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
