package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

var (
	punchLat    float64
	punchLng    float64
	punchForce  bool
	punchRemote bool
)

var punchCmd = &cobra.Command{
	Use:       "punch <in|start-break|end-break|out>",
	Short:     "Record a punch at the current time",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"in", "start-break", "end-break", "out"},
	RunE:      runPunch,
}

func init() {
	punchCmd.Flags().Float64Var(&punchLat, "lat", 0, "Latitude where the punch was made")
	punchCmd.Flags().Float64Var(&punchLng, "lng", 0, "Longitude where the punch was made")
	punchCmd.Flags().BoolVar(&punchForce, "force", false, "Record even if the sequence looks invalid")
	punchCmd.Flags().BoolVar(&punchRemote, "remote", false, "Also record the punch on the backend")
}

func runPunch(cmd *cobra.Command, args []string) error {
	kind, err := punch.Parse(args[0])
	if err != nil {
		return userError("%v (valid: in, start-break, end-break, out)", err)
	}

	hasLat, hasLng := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	if hasLat != hasLng {
		return userError("--lat and --lng must be given together")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ctx := cmd.Context()
	now := a.now()

	last, err := a.store.LastPunch(ctx, a.cfg.UserID, now)
	if err != nil {
		return systemError(err)
	}
	var lastKind model.Kind
	if last != nil {
		lastKind = last.Kind
	}

	if v := punch.ValidateTransition(lastKind, kind); !v.OK {
		if !punchForce {
			return userError("invalid sequence: %s", v.Reason)
		}
		a.logger.Warn("recording out-of-sequence punch",
			zap.String("last", string(lastKind)), zap.String("next", string(kind)))
	}

	p := model.Punch{
		ID:        timecalc.GenerateID(now),
		UserID:    a.cfg.UserID,
		Kind:      kind,
		Timestamp: now,
		Source:    "manual",
	}
	if hasLat {
		lat, lng := punchLat, punchLng
		p.Latitude, p.Longitude = &lat, &lng
	}

	if punchRemote {
		client, err := a.remoteClient(ctx)
		if err != nil {
			return err
		}
		saved, err := client.InsertPunch(ctx, p)
		if err != nil {
			return systemError(fmt.Errorf("could not record punch on the backend: %w", err))
		}
		p.ExternalID = string(saved.ID)
	}

	if err := a.store.SavePunch(ctx, p); err != nil {
		return systemError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s at %s\n", punch.Label(kind), now.Format("15:04:05"))
	return nil
}
