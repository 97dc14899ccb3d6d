package store

import (
	"context"
	"fmt"

	"meetup-api/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
)

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	record, err := s.app.FindRecordById(UsersCollection, id)
	if err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return recordToUser(record), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	record, err := s.app.FindFirstRecordByData(UsersCollection, "username", username)
	if err != nil {
		return nil, notFound(err, "user %q", username)
	}
	return recordToUser(record), nil
}

func (s *Store) FindUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	records, err := s.app.FindRecordsByIds(UsersCollection, ids)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := make(map[string]*models.User, len(records))
	for _, record := range records {
		users[record.Id] = recordToUser(record)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User, avatar *filesystem.File) error {
	record, err := s.app.FindRecordById(UsersCollection, user.ID)
	if err != nil {
		return notFound(err, "user %s", user.ID)
	}
	record.Set("name", user.Name)
	record.Set("phone_number", user.PhoneNumber)
	if avatar != nil {
		record.Set("avatar", avatar)
	}
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save user %s: %w", user.ID, err)
	}
	user.Avatar = fileURL(record, "avatar")
	return nil
}

func recordToUser(record *core.Record) *models.User {
	return &models.User{
		ID:          record.Id,
		Username:    record.GetString("username"),
		Email:       record.Email(),
		Name:        record.GetString("name"),
		Avatar:      fileURL(record, "avatar"),
		PhoneNumber: record.GetString("phone_number"),
	}
}
