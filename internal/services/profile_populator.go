package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/metrics"
	"github.com/maxaizer/cv-extractor/internal/repositories"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strings"
	"time"
)

type profileRepository interface {
	ApplyChanges(ctx context.Context, ID string, changes repositories.ProfileChanges) error
}

type languageRepository interface {
	GetByCode(ctx context.Context, value string) (*entities.Language, error)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01",
	"01/2006",
	"02/01/2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// ProfilePopulator merges an extraction into an existing candidate profile.
type ProfilePopulator struct {
	profiles  profileRepository
	languages languageRepository
	now       func() time.Time
}

func NewProfilePopulator(profiles profileRepository, languages languageRepository) *ProfilePopulator {
	return &ProfilePopulator{profiles: profiles, languages: languages, now: time.Now}
}

func (p *ProfilePopulator) Populate(ctx context.Context, profileID string, cv *entities.CVSchema) error {

	if cv == nil {
		return errors.New("nothing to populate")
	}

	changes := repositories.ProfileChanges{Scalars: scalarChanges(cv)}

	if cv.Skills != nil {
		skills := lo.Map(cv.Skills, func(skill entities.CVSkill, _ int) entities.ProfileSkill {
			return entities.ProfileSkill{ProfileID: profileID, Name: skill.Name, Order: skill.Order}
		})
		changes.Skills = &skills
	}

	if cv.Experiences != nil {
		experiences := lo.Map(cv.Experiences, func(e entities.CVExperience, _ int) entities.ProfileExperience {
			return entities.ProfileExperience{
				ProfileID:   profileID,
				Title:       e.Title,
				Description: e.Description,
				Company:     e.Company,
				Location:    e.Location,
				StartDate:   p.parseDate(e.StartDate),
				EndDate:     p.parseDate(e.EndDate),
			}
		})
		changes.Experiences = &experiences
	}

	if cv.Formations != nil {
		formations := lo.Map(cv.Formations, func(f entities.CVFormation, _ int) entities.ProfileFormation {
			return entities.ProfileFormation{
				ProfileID:   profileID,
				Title:       f.Title,
				Description: f.Description,
				Location:    f.Location,
				StartDate:   p.parseDate(f.StartDate),
				EndDate:     p.parseDate(f.EndDate),
			}
		})
		changes.Formations = &formations
	}

	if cv.Interests != nil {
		interests := lo.Map(cv.Interests, func(i entities.CVInterest, _ int) entities.ProfileInterest {
			return entities.ProfileInterest{ProfileID: profileID, Name: i.Name}
		})
		changes.Interests = &interests
	}

	if cv.Languages != nil {
		languages, err := p.resolveLanguages(ctx, profileID, cv.Languages)
		if err != nil {
			return err
		}
		changes.Languages = &languages
	}

	err := p.profiles.ApplyChanges(ctx, profileID, changes)
	if errors.Is(err, repositories.ErrNotFound) {
		return &ProfileNotFoundError{ProfileID: profileID}
	}
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", profileID, err)
	}
	return nil
}

func scalarChanges(cv *entities.CVSchema) map[string]any {
	scalars := map[string]any{}
	fields := map[string]*string{
		"description":  cv.Description,
		"department":   cv.Department,
		"linkedin_url": cv.LinkedinURL,
		"introduction": cv.Introduction,
	}
	for column, value := range fields {
		if value != nil {
			scalars[column] = *value
		}
	}
	return scalars
}

// resolveLanguages maps extracted languages to known ones and drops the rest.
func (p *ProfilePopulator) resolveLanguages(ctx context.Context, profileID string,
	extracted []entities.CVLanguage) ([]entities.UserProfileLanguage, error) {

	languages := make([]entities.UserProfileLanguage, 0, len(extracted))
	seen := map[string]bool{}

	for _, item := range extracted {
		language, err := p.languages.GetByCode(ctx, item.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve language %q: %w", item.Value, err)
		}
		if language == nil {
			metrics.DroppedLanguagesCounter.Inc()
			log.Debugf("dropping unknown language %q for profile %s", item.Value, profileID)
			continue
		}
		if seen[language.Code] {
			continue
		}
		seen[language.Code] = true
		languages = append(languages, entities.UserProfileLanguage{
			ProfileID:    profileID,
			LanguageCode: language.Code,
			Level:        item.Level,
		})
	}

	return languages, nil
}

// parseDate falls back to the current time when value is empty or unparsable,
// so one bad date never discards a whole experience.
func (p *ProfilePopulator) parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed
			}
		}
		log.Debugf("unparsable date %q, using current time", value)
	}
	return p.now()
}
