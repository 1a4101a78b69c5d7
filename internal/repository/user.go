package repository

import (
	"context"

	"github.com/AhmedHarera/HeartFailure/internal/models"
)

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// EnsureUser records a user id seen in a verified token so it is counted on the
// dashboard. Existing rows are left alone.
func (s *Store) EnsureUser(ctx context.Context, id, email string) error {
	u := models.User{ID: id, Email: email}
	return s.db.WithContext(ctx).Where(models.User{ID: id}).FirstOrCreate(&u).Error
}
