package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Profile shows the authenticated user's account details.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if useJSON {
		body, err := r.spotify.GetProfileRaw(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		return r.writeRaw(body, pretty)
	}

	profile, err := r.spotify.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlainHeader("Spotify Profile")
	r.writePlain("Name: %s\n", profile.DisplayName)
	r.writePlain("ID: %s\n", profile.ID)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.Country != "" {
		r.writePlain("Country: %s\n", profile.Country)
	}
	if profile.Product != "" {
		r.writePlain("Plan: %s\n", profile.Product)
	}

	return nil
}

// listingPage is the slice of the playlist page envelope the CLI displays.
type listingPage struct {
	Items []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Public bool   `json:"public"`
		Tracks struct {
			Total int `json:"total"`
		} `json:"tracks"`
	} `json:"items"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// Playlists lists Spotify playlists: one page of the listing by default, or
// the full listing with --all.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	offset := cmd.Int("offset")
	limit := cmd.Int("limit")
	all := cmd.Bool("all")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if all {
		r.logger.Info("walking full playlist listing")

		playlists, err := r.spotify.GetPlaylists(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if useJSON {
			return r.writeJSON(playlists, pretty)
		}

		r.writePlain("Found %d playlists:\n\n", len(playlists))
		for i, p := range playlists {
			r.writePlain("%d. %s\n", i+1, p.Name)
			if p.Description != "" {
				r.writePlain("   Description: %s\n", p.Description)
			}
			r.writePlain("   ID: %s\n", p.ID)
			r.writePlain("   Tracks: %d\n", p.TrackCount)
			if p.Public {
				r.writePlain("   Visibility: Public\n")
			} else {
				r.writePlain("   Visibility: Private\n")
			}
			r.writePlain("\n")
		}

		return nil
	}

	r.logger.Info("fetching playlist page", "offset", offset, "limit", limit)

	body, err := r.spotify.GetPlaylistPageRaw(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeRaw(body, pretty)
	}

	var page listingPage
	if err := json.Unmarshal(body, &page); err != nil {
		return fmt.Errorf("failed to decode playlist page: %w", err)
	}

	r.writePlain("Playlists %d-%d of %d:\n\n", page.Offset+1, page.Offset+len(page.Items), page.Total)
	for i, p := range page.Items {
		r.writePlain("%d. %s (%d tracks)\n", page.Offset+i+1, p.Name, p.Tracks.Total)
		r.writePlain("   ID: %s\n", p.ID)
	}
	if page.Next != nil {
		r.writePlain("\nMore pages available, use --offset %d or --all\n", page.Offset+len(page.Items))
	}

	return nil
}

// writeRaw prints an upstream response body untouched, or re-indented when
// pretty is set and the body parses as JSON.
func (r *Runner) writeRaw(body []byte, pretty bool) error {
	if pretty {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return r.writeJSON(v, true)
		}
	}
	return r.writePlain("%s\n", body)
}
