package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

type compiledOverride struct {
	override models.UserOverride
	matcher  matcher
}

// UserOverrideStrategy maps descriptions through mappings saved by users.
// Overrides are checked newest first and always win.
type UserOverrideStrategy struct {
	overrides []compiledOverride
	store     MappingStoreInterface
	logger    logging.Logger
	mu        sync.RWMutex
}

// NewUserOverrideStrategy creates a UserOverrideStrategy loaded from store.
func NewUserOverrideStrategy(store MappingStoreInterface, logger logging.Logger) *UserOverrideStrategy {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &UserOverrideStrategy{store: store, logger: logger}
	s.load()
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *UserOverrideStrategy) Name() string {
	return "UserOverride"
}

func (s *UserOverrideStrategy) load() {
	if s.store == nil {
		return
	}
	overrides, err := s.store.LoadUserOverrides()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load user overrides for UserOverrideStrategy")
		return
	}
	for _, o := range overrides {
		if err := s.add(o); err != nil {
			s.logger.WithError(err).Warn("Skipping invalid user override",
				logging.F(logging.FieldDescription, o.Description))
		}
	}
	s.logger.Debug("Loaded user overrides", logging.F(logging.FieldCount, len(s.overrides)))
}

func (s *UserOverrideStrategy) add(o models.UserOverride) error {
	if !models.AccountPath(o.Account).IsValid() {
		return fmt.Errorf("invalid account path %q", o.Account)
	}
	if o.MatchType == "" {
		o.MatchType = models.MatchExact
	}
	m, err := newMatcher(o.MatchType, o.Description)
	if err != nil {
		return err
	}
	s.overrides = append(s.overrides, compiledOverride{override: o, matcher: m})
	return nil
}

// Map implements MappingStrategy.
func (s *UserOverrideStrategy) Map(_ context.Context, req Request) (models.MappingResult, bool, error) {
	if strings.TrimSpace(req.Description) == "" {
		return models.MappingResult{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.overrides) - 1; i >= 0; i-- {
		o := s.overrides[i]
		if o.override.User != "" && !strings.EqualFold(o.override.User, req.User) {
			continue
		}
		if !o.matcher.match(req.Description) {
			continue
		}
		account := models.AccountPath(o.override.Account)
		return models.MappingResult{
			Account:     account,
			AccountType: accountType("", account, req.Description),
			Confidence:  ConfidenceUser,
			Source:      models.SourceUser,
		}, true, nil
	}
	return models.MappingResult{}, false, nil
}

// Learn records a user correction and persists the full override table.
func (s *UserOverrideStrategy) Learn(user, description string, account models.AccountPath) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.New("description is required")
	}
	if !account.IsValid() {
		return fmt.Errorf("invalid account path %q", account)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.overrides[:0]
	for _, o := range s.overrides {
		if o.override.MatchType == models.MatchExact &&
			strings.EqualFold(o.override.User, user) &&
			o.matcher.text == normalizeText(description) {
			continue
		}
		kept = append(kept, o)
	}
	s.overrides = kept

	if err := s.add(models.UserOverride{
		User:        user,
		Description: description,
		MatchType:   models.MatchExact,
		Account:     account.String(),
	}); err != nil {
		return err
	}

	if s.store == nil {
		return nil
	}
	table := make([]models.UserOverride, len(s.overrides))
	for i, o := range s.overrides {
		table[i] = o.override
	}
	if err := s.store.SaveUserOverrides(table); err != nil {
		return fmt.Errorf("failed to save user overrides: %w", err)
	}
	return nil
}
