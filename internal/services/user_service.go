package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"meetup-api/config"
	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"

	"github.com/pocketbase/pocketbase/tools/filesystem"
)

const (
	maxFullNameLength    = 300
	maxPhoneNumberLength = 17
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]*$`)

type UserInput struct {
	Name        *string
	PhoneNumber *string
	Avatar      *filesystem.File
}

type UserService struct {
	base
}

func NewUserService(repo Repository, cfg *config.Config) *UserService {
	return &UserService{base: newBase(repo, nil, nil, nil, cfg)}
}

func (s *UserService) Me(ctx context.Context, actor policy.Actor) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	return s.repo.FindUserByID(ctx, actor.ID)
}

func (s *UserService) UpdateMe(ctx context.Context, actor policy.Actor, in UserInput) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	user, err := s.repo.FindUserByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if utf8.RuneCountInString(name) > maxFullNameLength {
			return nil, fmt.Errorf("%w: full_name exceeds %d characters", status.ErrInvalid, maxFullNameLength)
		}
		user.Name = name
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if len(phone) > maxPhoneNumberLength || !phonePattern.MatchString(phone) {
			return nil, fmt.Errorf("%w: invalid phone_number", status.ErrInvalid)
		}
		user.PhoneNumber = phone
	}

	if err := s.repo.UpdateUser(ctx, user, in.Avatar); err != nil {
		return nil, err
	}
	return user, nil
}
