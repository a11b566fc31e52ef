package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rotoshake/imagecanvas-sub005/config"
	"github.com/rotoshake/imagecanvas-sub005/logger"
	"github.com/rotoshake/imagecanvas-sub005/transport"

	"github.com/rotoshake/imagecanvas-sub005/app"
)

// ConnectCmd dials a collaboration server over WebSocket and runs the
// receive loop that keeps the local engine in sync: state deltas, acks,
// and rejects are routed to the pipeline as they arrive.
var ConnectCmd = &cobra.Command{
	Use:   "connect [url]",
	Short: "Connect to a collaboration server and stay in sync",
	Long:  `Dials the given WebSocket URL, requests a full sync, and applies incoming state deltas/acks/rejects until the connection closes.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, conn, err := app.Dial(cfg, args[0])
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	eng.Sync.RequestFullSync = func(reason string) {
		_ = conn.WriteJSON(transport.Envelope{Type: transport.TypeRequestState})
		logger.SyncInfow("requested full sync", "reason", reason)
	}
	eng.Sync.RequestFullSync("initial connect")

	for {
		var env transport.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}

		switch env.Type {
		case transport.TypeAck:
			var ack transport.Ack
			if err := decodeInto(env, &ack); err != nil {
				logger.SyncWarnw("failed to decode ack", "error", err)
				continue
			}
			if err := eng.Pipeline.HandleAck(ack); err != nil {
				logger.SyncWarnw("failed to apply ack", "error", err)
			}
		case transport.TypeReject:
			var reject transport.Reject
			if err := decodeInto(env, &reject); err != nil {
				logger.SyncWarnw("failed to decode reject", "error", err)
				continue
			}
			if err := eng.Pipeline.HandleReject(reject); err != nil {
				logger.SyncWarnw("failed to apply reject", "error", err)
			}
		case transport.TypeStateDelta:
			params, err := transport.DecodeParams(env)
			if err != nil {
				logger.SyncWarnw("failed to decode state delta params", "error", err)
				continue
			}
			delta := transport.StateDelta{Type: env.Type, Params: params, OpID: env.OpID}
			if env.Seq != nil {
				delta.Seq = *env.Seq
			}
			if _, err := eng.Pipeline.ApplyRemote(delta); err != nil {
				logger.SyncWarnw("failed to apply remote delta", "error", err)
			}
		default:
			params, err := transport.DecodeParams(env)
			if err != nil {
				logger.SyncWarnw("failed to decode envelope params", "type", env.Type, "error", err)
				continue
			}
			delta := transport.StateDelta{Type: env.Type, Params: params, OpID: env.OpID}
			if _, err := eng.Pipeline.ApplyRemote(delta); err != nil {
				logger.SyncWarnw("failed to apply remote command", "type", env.Type, "error", err)
			}
		}
	}
}

func decodeInto(env transport.Envelope, v interface{}) error {
	params, err := transport.DecodeParams(env)
	if err != nil {
		return err
	}
	switch dst := v.(type) {
	case *transport.Ack:
		dst.OpID = env.OpID
		if ids, ok := params["ids"].([]interface{}); ok {
			for _, id := range ids {
				if s, ok := id.(string); ok {
					dst.IDs = append(dst.IDs, s)
				}
			}
		}
	case *transport.Reject:
		dst.OpID = env.OpID
		if reason, ok := params["reason"].(string); ok {
			dst.Reason = reason
		}
	}
	return nil
}
