package uisync

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-cartfee/internal/cart"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// Syncer refreshes the cart fragment, falling back to a full reload.
type Syncer struct {
	source    cart.FragmentSource
	sectionID string
	bindings  *Bindings
	logg      *logger.Logger
}

// NewSyncer wires a Syncer.
func NewSyncer(source cart.FragmentSource, sectionID string, bindings *Bindings, logg *logger.Logger) (*Syncer, error) {
	if source == nil {
		return nil, fmt.Errorf("fragment source required")
	}
	if strings.TrimSpace(sectionID) == "" {
		return nil, fmt.Errorf("section id required")
	}
	if bindings == nil {
		bindings = NewBindings()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Syncer{source: source, sectionID: sectionID, bindings: bindings, logg: logg}, nil
}

// Bindings exposes the generation registry.
func (s *Syncer) Bindings() *Bindings {
	return s.bindings
}

// Refresh fetches fresh markup and starts a new binding generation. Any
// failure or empty markup yields a reload instruction instead.
func (s *Syncer) Refresh(ctx context.Context, session string) Instructions {
	html, err := s.source.RenderSection(ctx, session, s.sectionID)
	if err != nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, session), fmt.Sprintf("fragment refresh failed, falling back to reload: %v", err))
		return Instructions{Reload: true}
	}
	if strings.TrimSpace(html) == "" {
		s.logg.Warn(s.logg.WithSessionID(ctx, session), "fragment missing, falling back to reload")
		return Instructions{Reload: true}
	}
	return Instructions{Fragment: &Fragment{
		SectionID:  s.sectionID,
		HTML:       html,
		Generation: s.bindings.Rebind(session),
	}}
}
