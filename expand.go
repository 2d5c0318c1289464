package templatesync

import (
	"context"
	"fmt"
	"strings"
)

// Team is the catalog view a team selection carries into an expansion.
type Team struct {
	Name     string
	Logo     string // hosted logo URL
	LeagueID string
}

// League is the secondary lookup result for a team's league.
type League struct {
	Name string
	Logo string
}

// Player is the catalog view a player selection carries into an expansion.
type Player struct {
	Name              string // full name, e.g. "Jane Doe"
	PositionAndNumber string // label, e.g. "GK 1"
	Image             string // hosted image URL
}

// Sponsor is the catalog view a sponsor selection carries into an expansion.
// Logo is a reference URL into the sponsor catalog, not a hosted asset; it is
// re-uploaded before being written to the template.
type Sponsor struct {
	Name string
	Logo string
}

// LeagueLookup resolves a team's league. Returning (nil, nil) means the
// league is unknown; the expansion still writes the league selectors, with
// empty values.
type LeagueLookup func(ctx context.Context, leagueID string) (*League, error)

// AssetUploader re-hosts a remote asset and returns its hosted URL.
type AssetUploader interface {
	UploadFromURL(ctx context.Context, srcURL string) (string, error)
}

// Side-independent selectors written by every team expansion.
const (
	selectorLeagueName = "leagueName"
	selectorLeagueLogo = "leagueLogo"
)

// teamNameSelector derives the team-name selector from the triggering logo
// binding: teamLogoLeft writes teamNameLeft, teamLogoRight teamNameRight.
func teamNameSelector(logoSelector string) string {
	return strings.Replace(logoSelector, "Logo", "Name", 1)
}

// ExpandTeam builds the ordered writes for a team selection triggered through
// binding: the side's logo, the league name and logo, and the side's team
// name. The league lookup failing or returning nothing degrades to empty
// league values; the selectors are still emitted so a previous team's league
// is always overwritten, never left behind.
func ExpandTeam(ctx context.Context, binding FieldBinding, team Team, leagues LeagueLookup) ([]Edit, error) {
	if binding.Role != RoleTeamLogoLeftPicker && binding.Role != RoleTeamLogoRightPicker {
		return nil, fmt.Errorf("%w: %s is %s, want a team logo picker",
			ErrRoleMismatch, binding.SourceName, binding.Role)
	}

	var league League
	if leagues != nil && team.LeagueID != "" {
		l, err := leagues(ctx, team.LeagueID)
		if err == nil && l != nil {
			league = *l
		}
	}

	return []Edit{
		{Selector: binding.SourceName, Value: team.Logo},
		{Selector: selectorLeagueName, Value: league.Name},
		{Selector: selectorLeagueLogo, Value: league.Logo},
		{Selector: teamNameSelector(binding.SourceName), Value: team.Name},
	}, nil
}

// ExpandPlayer builds the ordered writes for a player selection on a numbered
// slot: image, position/number label, full name, first name and last name,
// each keyed by the slot index of the triggering playerImage{n} binding.
func ExpandPlayer(binding FieldBinding, player Player) ([]Edit, error) {
	if binding.Role != RolePlayerPicker {
		return nil, fmt.Errorf("%w: %s is %s, want a player picker",
			ErrRoleMismatch, binding.SourceName, binding.Role)
	}

	first, last := splitName(player.Name)
	n := binding.PlayerIndex

	return []Edit{
		{Selector: fmt.Sprintf("playerImage%d", n), Value: player.Image},
		{Selector: fmt.Sprintf("playerNumber%d", n), Value: player.PositionAndNumber},
		{Selector: fmt.Sprintf("playername%d", n), Value: player.Name},
		{Selector: fmt.Sprintf("playerfirstname%d", n), Value: first},
		{Selector: fmt.Sprintf("playerlastname%d", n), Value: last},
	}, nil
}

// splitName splits a full name at the first space: "Jane Doe" becomes
// ("Jane", "Doe"), a single token has an empty last name.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ApplyTeam expands a team selection and fans the writes out sequentially.
func (s *Session) ApplyTeam(ctx context.Context, binding FieldBinding, team Team, leagues LeagueLookup) ([]Outcome, error) {
	edits, err := ExpandTeam(ctx, binding, team, leagues)
	if err != nil {
		return nil, err
	}
	return s.ApplyEdits(ctx, edits), nil
}

// ApplyPlayer expands a player selection and fans the writes out sequentially.
func (s *Session) ApplyPlayer(ctx context.Context, binding FieldBinding, player Player) ([]Outcome, error) {
	edits, err := ExpandPlayer(binding, player)
	if err != nil {
		return nil, err
	}
	return s.ApplyEdits(ctx, edits), nil
}

// ApplySponsor re-hosts the sponsor's logo through the upload collaborator
// and writes the hosted URL to the triggering slot. An upload failure is
// returned to the caller with the store untouched; it is one of the two
// failure kinds (with render) that surface to the user.
func (s *Session) ApplySponsor(ctx context.Context, binding FieldBinding, sponsor Sponsor, uploads AssetUploader) ([]Outcome, error) {
	if binding.Role != RoleSponsorLogoPicker {
		return nil, fmt.Errorf("%w: %s is %s, want the sponsor logo picker",
			ErrRoleMismatch, binding.SourceName, binding.Role)
	}

	s.busy.Add(1)
	defer s.busy.Add(-1)

	hosted, err := uploads.UploadFromURL(ctx, sponsor.Logo)
	if err != nil {
		return nil, fmt.Errorf("re-host sponsor logo: %w", err)
	}

	return s.ApplyEdits(ctx, []Edit{{Selector: binding.SourceName, Value: hosted}}), nil
}
