package extract

import (
	"fmt"
	"time"

	"calbot/app/config"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/samber/do"
)

// Service resolves natural-language date/time phrases ("tomorrow at 4 PM")
// into absolute instants in the configured timezone. Relative phrases are
// interpreted against the caller-supplied now.
type Service struct {
	cfg    *config.Config
	parser *when.Parser
	loc    *time.Location
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Calendar.Timezone, err)
	}

	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &Service{
		cfg:    cfg,
		parser: parser,
		loc:    loc,
	}, nil
}

// Extract returns the first instant found in text, or false if the text
// contains nothing that parses as a date or time.
func (s *Service) Extract(text string, now time.Time) (time.Time, bool, error) {
	result, err := s.parser.Parse(text, now.In(s.loc))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parser.Parse: %w", err)
	}

	if result == nil {
		return time.Time{}, false, nil
	}

	return result.Time.In(s.loc), true, nil
}
