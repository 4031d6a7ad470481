package services

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/ai"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/events"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/metrics"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// Dependencies is everything the services are built from. Store, Translator
// and Speech may be nil when the provider is not configured.
type Dependencies struct {
	Repo       repositories.Repository
	Cache      *cache.CacheManager
	Hasher     security.PasswordHasher
	Cipher     security.FieldCipher
	Store      storage.ObjectStore
	Translator ai.Translator
	Speech     ai.SpeechSynthesizer
	Recorder   *events.Recorder
	Metrics    *metrics.Metrics
	Validator  *validator.Validator
	Languages  []string
	Logger     *slog.Logger
}

func (d *Dependencies) validate(req interface{}) error {
	if d.Validator == nil {
		return nil
	}
	return d.Validator.Validate(req)
}

func (d *Dependencies) sourceLanguage() string {
	if len(d.Languages) == 0 {
		return "en"
	}
	return d.Languages[0]
}

// resolveLanguages filters requested down to configured languages, keeping the
// configured order. An empty request selects every configured language.
func resolveLanguages(configured, requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), configured...)
	}
	want := make(map[string]struct{}, len(requested))
	for _, l := range requested {
		want[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	var out []string
	for _, l := range configured {
		if _, ok := want[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func roundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// percentage returns part/total*100 rounded to one decimal, 0 for an empty total
func percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return roundFloat(float64(part)/float64(total)*100, 1)
}

// toProfile decrypts contact fields for display
func toProfile(u *models.User, cipher security.FieldCipher) (*models.UserProfile, error) {
	email, err := security.OpenPtr(cipher, u.EmailEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt email of %s: %w", u.EmployeeID, err)
	}
	mobile, err := security.OpenPtr(cipher, u.MobileEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt mobile of %s: %w", u.EmployeeID, err)
	}

	p := &models.UserProfile{
		ID:                u.ID,
		EmployeeID:        u.EmployeeID,
		FullName:          u.FullName,
		Role:              u.Role,
		Email:             email,
		Mobile:            mobile,
		Pending:           u.IsPending(),
		Shadow:            u.IsShadow(),
		LinkedParentID:    u.LinkedParentID,
		TeamID:            u.TeamID,
		DesignationID:     u.DesignationID,
		LocationID:        u.LocationID,
		PreferredLanguage: u.PreferredLanguage,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
	}
	if u.Team != nil {
		p.TeamName = u.Team.Name
	}
	if u.Designation != nil {
		p.DesignationName = u.Designation.Name
	}
	if u.Location != nil {
		p.LocationName = u.Location.Name
	}
	return p, nil
}

func toProfiles(users []*models.User, cipher security.FieldCipher) ([]*models.UserProfile, error) {
	out := make([]*models.UserProfile, 0, len(users))
	for _, u := range users {
		p, err := toProfile(u, cipher)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// pageSize and pageNumber mirror the repository pagination defaults
func pageSize(size int) int {
	switch {
	case size <= 0:
		return 20
	case size > 100:
		return 100
	default:
		return size
	}
}

func pageNumber(page int) int {
	if page < 0 {
		return 0
	}
	return page
}
