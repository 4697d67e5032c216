package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/city-guide/api-go/models"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already registered")

type Profiles struct {
	db *gorm.DB
}

func NewProfiles(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

func (s *Profiles) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Profiles) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Profiles) Create(ctx context.Context, p *models.Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return fmt.Errorf("create profile: empty email")
	}
	if _, err := s.GetByEmail(ctx, p.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if p.Provider == "" {
		p.Provider = "email"
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// FindOrCreateGoogle returns the profile linked to googleID, linking an
// existing email profile on first Google sign-in or creating a new one.
func (s *Profiles) FindOrCreateGoogle(ctx context.Context, googleID, email, fullName, avatarURL string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var p models.Profile
	err := s.db.WithContext(ctx).Where("google_id = ? OR email = ?", googleID, email).First(&p).Error
	switch {
	case err == nil:
		if p.GoogleID == nil || *p.GoogleID == "" {
			p.GoogleID = &googleID
			p.Provider = "google"
			if p.AvatarURL == "" {
				p.AvatarURL = avatarURL
			}
			if p.FullName == "" {
				p.FullName = fullName
			}
			if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
		}
		return &p, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = models.Profile{
			Email:     email,
			Username:  strings.SplitN(email, "@", 2)[0],
			FullName:  fullName,
			AvatarURL: avatarURL,
			GoogleID:  &googleID,
			Provider:  "google",
		}
		if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, fmt.Errorf("create google profile: %w", err)
		}
		return &p, nil
	default:
		return nil, err
	}
}

// IsAdmin reports the privilege flag. A missing profile is not privileged.
func (s *Profiles) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Select("id", "is_admin").First(&p, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsAdmin, nil
}

func (s *Profiles) SetAdmin(ctx context.Context, userID uint, isAdmin bool) (*models.Profile, error) {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", userID).Update("is_admin", isAdmin)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, userID)
}

// UpdateProfile changes the editable profile fields. Empty values are kept.
func (s *Profiles) UpdateProfile(ctx context.Context, userID uint, username, fullName, avatarURL string) (*models.Profile, error) {
	p, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if username != "" {
		updates["username"] = username
	}
	if fullName != "" {
		updates["full_name"] = fullName
	}
	if avatarURL != "" {
		updates["avatar_url"] = avatarURL
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(ctx, userID)
}

func (s *Profiles) SaveRefreshToken(ctx context.Context, userID uint, token string, expires time.Time) error {
	return s.db.WithContext(ctx).Create(&models.RefreshToken{
		UserID:         userID,
		Token:          token,
		ExpirationDate: expires,
	}).Error
}

// RotateRefreshToken replaces old with next. Expired tokens are deleted and
// reported as ErrNotFound.
func (s *Profiles) RotateRefreshToken(ctx context.Context, old, next string, expires time.Time) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", old).First(&rt).Error; err != nil {
		return nil, notFound(err)
	}
	if time.Now().After(rt.ExpirationDate) {
		s.db.WithContext(ctx).Delete(&rt)
		return nil, ErrNotFound
	}
	rt.Token = next
	rt.ExpirationDate = expires
	if err := s.db.WithContext(ctx).Save(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// FindRefreshToken returns a live refresh token row.
func (s *Profiles) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, notFound(err)
	}
	if time.Now().After(rt.ExpirationDate) {
		s.db.WithContext(ctx).Delete(&rt)
		return nil, ErrNotFound
	}
	return &rt, nil
}

func (s *Profiles) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}
