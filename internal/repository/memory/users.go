package memory

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
)

type userRepo tx

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range r.st.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	r.st.nextUser++
	user.ID = r.st.nextUser
	user.CreatedAt = r.now()
	r.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) List(ctx context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.st.users))
	for _, id := range sortedKeys(r.st.users) {
		users = append(users, r.st.users[id])
	}
	return users, nil
}
