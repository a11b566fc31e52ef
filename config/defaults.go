package config

import "github.com/spf13/viper"

// SetDefaults configures default values for every tunable the engine reads.
func SetDefaults(v *viper.Viper) {
	// Alignment engine (spring physics, grid/linear commit)
	v.SetDefault("alignment.spring_k", 180.0)
	v.SetDefault("alignment.spring_d", 26.0)
	v.SetDefault("alignment.default_margin", 20.0)
	v.SetDefault("alignment.tolerance", 0.5)
	v.SetDefault("alignment.animation_threshold", 2.0)
	v.SetDefault("alignment.large_scale_threshold", 150)
	v.SetDefault("alignment.large_scale_spring_k", 260.0)
	v.SetDefault("alignment.large_scale_spring_d", 32.0)
	v.SetDefault("alignment.large_scale_animation_threshold", 4.0)
	v.SetDefault("alignment.max_animation_batch_size", 400)
	v.SetDefault("alignment.frame_budget_ms", 16.0)
	v.SetDefault("alignment.time_scale", 1.0)
	v.SetDefault("alignment.title_bar_height", 28.0)
	v.SetDefault("alignment.group_padding", 12.0)

	// State sync reconciliation
	v.SetDefault("sync.full_sync_cooldown", "3s")

	// Upload coordinator
	v.SetDefault("upload.retry_backoff_seconds", []int{2, 4, 6})
	v.SetDefault("upload.max_retries", 3)
	v.SetDefault("upload.post_upload_sync_delay", "1s")
	v.SetDefault("upload.stale_pending_threshold", "5m")
	v.SetDefault("upload.api_base", "")

	// Undo manager / media optimization
	v.SetDefault("undo.stack_limit", 100)
	v.SetDefault("undo.large_payload_threshold_bytes", 100*1024)

	// Transport
	v.SetDefault("transport.write_timeout", "10s")
	v.SetDefault("transport.ping_interval", "30s")
}
