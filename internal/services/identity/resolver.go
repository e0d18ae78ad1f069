package identity

import (
	"context"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/auth"
	"circle_backend/internal/models"
	"circle_backend/internal/repositories"
)

// UserStore - чтение учетных записей из внешнего identity-хранилища
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// MembershipStore - чтение живых членств пользователя
type MembershipStore interface {
	GetRoomIDs(ctx context.Context, userID string) ([]string, error)
}

// Session - результат проверки credential при подключении
type Session struct {
	UserID  string   `json:"user_id"`
	RoomIDs []string `json:"room_ids"`
}

// Resolver проверяет credential соединения ровно один раз, до любого
// подключения к комнатам. Ошибка фатальна для попытки соединения.
type Resolver struct {
	users       UserStore
	memberships MembershipStore
}

func NewResolver(users UserStore, memberships MembershipStore) *Resolver {
	return &Resolver{
		users:       users,
		memberships: memberships,
	}
}

// Resolve валидирует токен и возвращает пользователя вместе со списком
// его комнат. Повторных попыток ядро не делает - клиент обязан
// переподключиться со свежим credential.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*Session, error) {
	if credential == "" {
		return nil, appErrors.ErrUnauthenticated
	}

	claims, err := auth.ParseToken(credential)
	if err != nil {
		return nil, appErrors.ErrInvalidCredential.WithError(err)
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidCredential.WithError(err)
		}
		return nil, err
	}

	if !user.IsActive() {
		return nil, appErrors.ErrAccountInactive
	}

	roomIDs, err := r.memberships.GetRoomIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:  user.ID,
		RoomIDs: roomIDs,
	}, nil
}
