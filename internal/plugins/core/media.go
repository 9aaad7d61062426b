package core

import "context"

// mediaControl wraps the `playerctl` CLI for MPRIS-compatible media players.
func mediaPlayPause(ctx context.Context) error  { return runTool(ctx, "playerctl", "play-pause") }
func mediaNext(ctx context.Context) error       { return runTool(ctx, "playerctl", "next") }
func mediaPrevious(ctx context.Context) error    { return runTool(ctx, "playerctl", "previous") }
func mediaStop(ctx context.Context) error        { return runTool(ctx, "playerctl", "stop") }
